// Package bus implements the Bus Gateway: the pub/sub boundary between the
// supervisory core and the operator network. It subscribes to exactly two
// command subtopics, acks every command, and republishes system state on
// the cadence table from §4.5.
package bus

// SchemaVersion is the "v" field stamped on every published payload.
const SchemaVersion = 1

// Command subtopics the gateway subscribes to on link-up.
const (
	TopicRelayCmd = "io/cmd/event"
	TopicRunCmd   = "run/cmd"
)

// Ack subtopics, one per command subtopic.
const (
	TopicRelayAck = "io/cmd/ack"
	TopicRunAck   = "run/ack"
)

// Periodic publication subtopics.
const (
	TopicHeartbeat  = "sys/heartbeat"
	TopicSysHealth  = "sys/health"
	TopicHealthFmt  = "health/%s/state"
	TopicPidFmt     = "pid/%s/state"
	TopicPidParamsFmt = "pid/%s/params"
	TopicDinState   = "io/din/state"
	TopicDinEvent   = "io/din/event"
	TopicDoutState  = "io/dout/state"
	TopicLWT        = "status/lwt"
	TopicBoot       = "status/boot"
)
