// Package cqrs dispatches commands and queries to their handlers.
//
// A message is a command or a query by capability: it embeds
// CommandMessage or QueryMessage. The Registry maps each concrete message
// type (a reflect.Type, pointer types normalized to their element) to the
// name of a handler, and the handler instance is obtained from a
// container.Resolver at dispatch time.
//
// Exactly one handler exists per message type and category. Registering
// a type again replaces the previous handler.
package cqrs
