package cqrs

import (
	"context"
	"reflect"
)

// Command is a message that changes state and returns no value.
type Command interface {
	isCommand()
}

// Query is a message that reads state and returns a value.
type Query interface {
	isQuery()
}

// CommandMessage marks a struct as a Command when embedded.
type CommandMessage struct{}

func (CommandMessage) isCommand() {}

// QueryMessage marks a struct as a Query when embedded.
type QueryMessage struct{}

func (QueryMessage) isQuery() {}

// Category is the dispatch category of a message.
type Category string

const (
	CategoryCommand Category = "command"
	CategoryQuery   Category = "query"
)

// CommandHandler processes one command type.
type CommandHandler interface {
	Process(ctx context.Context, cmd Command) error
}

// QueryHandler processes one query type.
type QueryHandler interface {
	Process(ctx context.Context, q Query) (any, error)
}

// TypeOf returns the registry key for message type T.
func TypeOf[T any]() reflect.Type {
	return normalize(reflect.TypeOf((*T)(nil)).Elem())
}

// MessageType returns the registry key for msg.
func MessageType(msg any) reflect.Type {
	return normalize(reflect.TypeOf(msg))
}

// CategoryOf returns the category msg belongs to. A message that is both
// a Command and a Query is treated as a Command.
func CategoryOf(msg any) (Category, bool) {
	switch msg.(type) {
	case Command:
		return CategoryCommand, true
	case Query:
		return CategoryQuery, true
	default:
		return "", false
	}
}

func normalize(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
