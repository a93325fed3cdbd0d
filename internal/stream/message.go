package stream

import "encoding/json"

// MessageKind classifies an inbound WebSocket frame.
type MessageKind int

const (
	// KindUnknown is any frame that is neither a subscription ack nor a
	// logs notification. Unknown frames are ignored but still count as
	// liveness activity.
	KindUnknown MessageKind = iota
	// KindSubscribeAck is the JSON-RPC response confirming a subscription.
	KindSubscribeAck
	// KindLogsNotification carries transaction log output for the
	// subscribed program.
	KindLogsNotification
)

// LogEvent is one logsNotification decoded to what the tracker consumes.
type LogEvent struct {
	Signature string
	Logs      []string
	Err       interface{} // non-nil when the transaction failed
	Slot      int64
}

// wsRequest is a JSON-RPC 2.0 request over WebSocket.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsMessage is the superset envelope used to classify inbound frames.
type wsMessage struct {
	ID     uint64           `json:"id"`
	Result json.RawMessage  `json:"result"`
	Method string           `json:"method"`
	Params *wsNotifyParams  `json:"params"`
	Error  *json.RawMessage `json:"error"`
}

type wsNotifyParams struct {
	Subscription uint64         `json:"subscription"`
	Result       wsNotifyResult `json:"result"`
}

type wsNotifyResult struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value struct {
		Signature string      `json:"signature"`
		Err       interface{} `json:"err"`
		Logs      []string    `json:"logs"`
	} `json:"value"`
}

// classify decodes a raw frame. For KindSubscribeAck the returned uint64 is
// the subscription ID; for KindLogsNotification the returned LogEvent is
// populated.
func classify(data []byte) (MessageKind, uint64, *LogEvent) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return KindUnknown, 0, nil
	}

	if msg.Method == "logsNotification" && msg.Params != nil {
		return KindLogsNotification, msg.Params.Subscription, &LogEvent{
			Signature: msg.Params.Result.Value.Signature,
			Logs:      msg.Params.Result.Value.Logs,
			Err:       msg.Params.Result.Value.Err,
			Slot:      msg.Params.Result.Context.Slot,
		}
	}

	if msg.ID != 0 && msg.Result != nil && msg.Error == nil {
		var subID uint64
		if err := json.Unmarshal(msg.Result, &subID); err == nil {
			return KindSubscribeAck, subID, nil
		}
	}

	return KindUnknown, 0, nil
}
