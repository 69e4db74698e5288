// Package message defines the tag-discriminated protocol spoken between
// the coordinator and its workers, and the transferable float32 buffers
// carried in job payloads.
package message

import "fmt"

// Kind discriminates a Message.
type Kind uint8

// Message kinds. KindInit and KindJob flow coordinator → worker;
// KindInitDone and KindJobDone flow worker → coordinator.
const (
	KindUnknown Kind = iota
	KindInit
	KindInitDone
	KindJob
	KindJobDone
)

// String returns the wire tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindInitDone:
		return "initDone"
	case KindJob:
		return "job"
	case KindJobDone:
		return "jobDone"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Message is one unit exchanged between the coordinator and a worker.
// Index is meaningful for init/initDone, ID and Payload for job/jobDone.
type Message struct {
	Kind    Kind
	Index   int
	ID      uint32
	Payload Payload
}

// Init builds the handshake sent to the worker at index.
func Init(index int) Message { return Message{Kind: KindInit, Index: index} }

// InitDone builds the handshake acknowledgment for index.
func InitDone(index int) Message { return Message{Kind: KindInitDone, Index: index} }

// Job builds a job message. The payload should already have been
// prepared with Payload.Transfer.
func Job(jobID uint32, p Payload) Message { return Message{Kind: KindJob, ID: jobID, Payload: p} }

// JobDone builds a job result message.
func JobDone(jobID uint32, p Payload) Message {
	return Message{Kind: KindJobDone, ID: jobID, Payload: p}
}
