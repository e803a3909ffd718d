// Package orm is the entity repository facade.
//
// A Catalog holds every table schema and its named relations. A
// Repository combines a Catalog with storage to load, persist and delete
// entities and to hand out relation accessors.
package orm
