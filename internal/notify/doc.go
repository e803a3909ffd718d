// Package notify delivers one logical message through several named
// channels.
//
// A Message declares which channels apply to a Notifiable and how it is
// rendered for each one (ToMail, ToDatabase, ToSms, ToSlack, ToTelegram).
// Embedding Base gives empty renderings for channels a message does not
// use.
//
// Messaging.Process walks the declared channel names in order. Names that
// are not registered are skipped. Every registered channel is attempted
// even when an earlier one fails; failures are joined into one error.
//
// Messaging.Queue defers the same processing to a Worker, which drains an
// in-memory FIFO, optionally rate limited, and records each job in the
// jobs table when a JobRecorder is configured. Jobs are not retried.
package notify
