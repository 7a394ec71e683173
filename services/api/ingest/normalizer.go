package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aguasdev/aguas-api/services/api/clock"
	"github.com/aguasdev/aguas-api/services/api/db"
)

// EnvelopeKey is the top-level key wrapping every device payload.
const EnvelopeKey = "DOMUAVRAINV2"

// FallbackSourceIP is recorded when neither a forwarded-for header nor a peer
// address is available.
const FallbackSourceIP = "152.207.242.131"

// Device command kinds. Anything else is stored with an empty value blob.
const (
	CmdResult = "RESULT"
	CmdGetCfg = "GETCFG"
	CmdWart   = "WART"
)

// Envelope is the device payload inside the DOMUAVRAINV2 wrapper. VALS and
// VAL are kept raw: their shape varies by firmware (array, object or bare
// number) and is normalized into the record's value blob, not decoded here.
type Envelope struct {
	Cmd    string          `json:"CMD"`
	ID     string          `json:"ID"`
	Imei   string          `json:"IMEI"`
	Time   string          `json:"TIME"`
	Vals   json.RawMessage `json:"VALS"`
	Val    json.RawMessage `json:"VAL"`
	Batt   string          `json:"BATT"`
	Powr   string          `json:"POWR"`
	Sigs   string          `json:"SIGS"`
	Nwtype string          `json:"NWTYPE"`
}

// ParsePayload extracts and validates the envelope from a webhook body.
func ParsePayload(body []byte) (Envelope, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return Envelope{}, &ValidationError{Reason: "Missing RECORD data"}
	}

	raw, ok := wrapper[EnvelopeKey]
	if !ok || isJSONNull(raw) {
		return Envelope{}, &ValidationError{Reason: "Missing RECORD data"}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, &ValidationError{Reason: "Missing RECORD data"}
	}

	if env.Cmd == "" || env.ID == "" || env.Imei == "" {
		return Envelope{}, &ValidationError{Reason: "Missing basic required fields: CMD, ID, IMEI"}
	}

	return env, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// RecordWriter appends canonical records. *db.Store satisfies it.
type RecordWriter interface {
	InsertRecord(ctx context.Context, rec db.Record) (db.Record, error)
}

// Normalizer turns device envelopes into canonical records and appends them.
type Normalizer struct {
	store RecordWriter
	clock clock.Clock
	log   *slog.Logger
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(store RecordWriter, clk clock.Clock, log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{store: store, clock: clk, log: log}
}

// Ingest normalizes one envelope and persists exactly one new record.
// Repeated transmissions append duplicate rows on purpose: records are
// immutable and there is no upsert.
func (n *Normalizer) Ingest(ctx context.Context, env Envelope, sourceIP string) (db.Record, error) {
	if sourceIP == "" {
		sourceIP = FallbackSourceIP
	}

	win := ParseWindow(env.Time, n.clock.Now())

	rec := db.Record{
		IP:         sourceIP,
		Cmd:        env.Cmd,
		Phone:      env.ID,
		Imei:       env.Imei,
		Time:       win.Label,
		StartTime:  win.Start,
		EndTime:    win.End,
		RecordDate: win.Date,
		Vals:       encodeVals(env),
		Batt:       env.Batt,
		Powr:       env.Powr,
		Sigs:       env.Sigs,
		Nwtype:     env.Nwtype,
	}

	stored, err := n.store.InsertRecord(ctx, rec)
	if err != nil {
		n.log.Error("ingest: insert record failed", "imei", env.Imei, "cmd", env.Cmd, "err", err)
		return db.Record{}, &IngestionError{Err: err}
	}

	n.log.Info("ingest: record stored",
		"id", stored.ID, "imei", stored.Imei, "cmd", stored.Cmd, "window", stored.Time)
	return stored, nil
}

// encodeVals builds the value blob according to the command kind.
func encodeVals(env Envelope) string {
	switch env.Cmd {
	case CmdResult:
		return encodeResultVals(env.Vals)
	case CmdWart:
		if len(env.Val) == 0 || isJSONNull(env.Val) {
			return "0"
		}
		return string(compactJSON(env.Val))
	default:
		// GETCFG and unknown commands carry no value.
		return ""
	}
}

// encodeResultVals stores the first element of VALS when it is a non-empty
// array, VALS itself when it is some other JSON value, and the literal "0.0"
// when it is absent or empty.
func encodeResultVals(vals json.RawMessage) string {
	if len(vals) == 0 || isJSONNull(vals) {
		return "0.0"
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(vals, &elements); err == nil {
		if len(elements) == 0 {
			return "0.0"
		}
		return string(compactJSON(elements[0]))
	}

	return string(compactJSON(vals))
}

func compactJSON(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
