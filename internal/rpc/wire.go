package rpc

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"

	"nursehub-api/internal/model"
)

// Wire layout of nursehub.admin.v1:
//
//	Appointment       1 id, 2 name, 3 email, 4 phone, 5 address, 6 reason,
//	                  7 message, 8 status, 9 cancellation_reason,
//	                  10 created_at (Timestamp)
//	LoginRequest      1 username, 2 password
//	LoginResponse     1 token, 2 username, 3 expires_at (Timestamp)
//	ListRequest       1 status
//	ListResponse      repeated 1 Appointment
//	IDRequest         1 id (Get, Delete)
//	UpdateRequest     1 id, 2 status, 3 cancellation_reason
//	AppointmentReply  1 Appointment (Get, UpdateStatus)
//	StatsResponse     1 pending, 2 approved, 3 completed, 4 cancelled

var errMalformed = errors.New("malformed message")

// scan walks the top-level fields of b. Length-delimited values arrive in v,
// varints in x; other wire types are skipped.
func scan(b []byte, fn func(num protowire.Number, v []byte, x uint64)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
			}
			fn(num, v, 0)
			b = b[n:]
		case protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
			}
			fn(num, nil, x)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

// stringFields decodes a message made only of string fields.
func stringFields(b []byte) (map[protowire.Number]string, error) {
	out := map[protowire.Number]string{}
	err := scan(b, func(num protowire.Number, v []byte, _ uint64) {
		out[num] = string(v)
	})
	return out, err
}

// appendString omits empty values, as proto3 does.
func appendString(out []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendString(out, s)
}

func appendVarint(out []byte, num protowire.Number, x uint64) []byte {
	if x == 0 {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.VarintType)
	return protowire.AppendVarint(out, x)
}

func appendMessage(out []byte, num protowire.Number, inner []byte) []byte {
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendBytes(out, inner)
}

func appendTimestamp(out []byte, num protowire.Number, ts *timestamppb.Timestamp) []byte {
	if ts == nil {
		return out
	}
	var inner []byte
	inner = appendVarint(inner, 1, uint64(ts.Seconds))
	inner = appendVarint(inner, 2, uint64(ts.Nanos))
	return appendMessage(out, num, inner)
}

func parseTimestamp(b []byte) (*timestamppb.Timestamp, error) {
	ts := &timestamppb.Timestamp{}
	err := scan(b, func(num protowire.Number, _ []byte, x uint64) {
		switch num {
		case 1:
			ts.Seconds = int64(x)
		case 2:
			ts.Nanos = int32(x)
		}
	})
	return ts, err
}

func appendAppointment(out []byte, num protowire.Number, a *model.Appointment) []byte {
	if a == nil {
		return out
	}
	var inner []byte
	inner = appendString(inner, 1, a.ID)
	inner = appendString(inner, 2, a.Name)
	inner = appendString(inner, 3, a.Email)
	inner = appendString(inner, 4, a.Phone)
	inner = appendString(inner, 5, a.Address)
	inner = appendString(inner, 6, a.Reason)
	inner = appendString(inner, 7, a.Message)
	inner = appendString(inner, 8, string(a.Status))
	if a.CancellationReason != nil {
		inner = appendString(inner, 9, *a.CancellationReason)
	}
	inner = appendTimestamp(inner, 10, timestamppb.New(a.CreatedAt))
	return appendMessage(out, num, inner)
}

func parseAppointment(b []byte) (model.Appointment, error) {
	var (
		a      model.Appointment
		tsErr  error
		reason string
	)
	err := scan(b, func(num protowire.Number, v []byte, _ uint64) {
		switch num {
		case 1:
			a.ID = string(v)
		case 2:
			a.Name = string(v)
		case 3:
			a.Email = string(v)
		case 4:
			a.Phone = string(v)
		case 5:
			a.Address = string(v)
		case 6:
			a.Reason = string(v)
		case 7:
			a.Message = string(v)
		case 8:
			a.Status = model.Status(v)
		case 9:
			reason = string(v)
		case 10:
			var ts *timestamppb.Timestamp
			if ts, tsErr = parseTimestamp(v); tsErr == nil {
				a.CreatedAt = ts.AsTime()
			}
		}
	})
	if err == nil {
		err = tsErr
	}
	if reason != "" {
		a.CancellationReason = &reason
	}
	return a, err
}

// appointmentField decodes the single Appointment carried in field 1.
func appointmentField(b []byte) (*model.Appointment, error) {
	var inner []byte
	if err := scan(b, func(num protowire.Number, v []byte, _ uint64) {
		if num == 1 {
			inner = v
		}
	}); err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, fmt.Errorf("%w: missing appointment", errMalformed)
	}
	a, err := parseAppointment(inner)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func encodeList(list []model.Appointment) []byte {
	var out []byte
	for i := range list {
		out = appendAppointment(out, 1, &list[i])
	}
	return out
}

func parseList(b []byte) ([]model.Appointment, error) {
	list := []model.Appointment{}
	var perr error
	err := scan(b, func(num protowire.Number, v []byte, _ uint64) {
		if num != 1 || perr != nil {
			return
		}
		a, err := parseAppointment(v)
		if err != nil {
			perr = err
			return
		}
		list = append(list, a)
	})
	if err == nil {
		err = perr
	}
	return list, err
}

func encodeStats(st model.Stats) []byte {
	var out []byte
	out = appendVarint(out, 1, uint64(st.Pending))
	out = appendVarint(out, 2, uint64(st.Approved))
	out = appendVarint(out, 3, uint64(st.Completed))
	out = appendVarint(out, 4, uint64(st.Cancelled))
	return out
}

func parseStats(b []byte) (model.Stats, error) {
	var st model.Stats
	err := scan(b, func(num protowire.Number, _ []byte, x uint64) {
		switch num {
		case 1:
			st.Pending = int(x)
		case 2:
			st.Approved = int(x)
		case 3:
			st.Completed = int(x)
		case 4:
			st.Cancelled = int(x)
		}
	})
	return st, err
}

type loginReply struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

func encodeLoginReply(r loginReply) []byte {
	var out []byte
	out = appendString(out, 1, r.Token)
	out = appendString(out, 2, r.Username)
	return appendTimestamp(out, 3, timestamppb.New(r.ExpiresAt))
}

func parseLoginReply(b []byte) (loginReply, error) {
	var (
		r     loginReply
		tsErr error
	)
	err := scan(b, func(num protowire.Number, v []byte, _ uint64) {
		switch num {
		case 1:
			r.Token = string(v)
		case 2:
			r.Username = string(v)
		case 3:
			var ts *timestamppb.Timestamp
			if ts, tsErr = parseTimestamp(v); tsErr == nil {
				r.ExpiresAt = ts.AsTime()
			}
		}
	})
	if err == nil {
		err = tsErr
	}
	return r, err
}
