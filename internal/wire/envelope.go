package wire

import (
	"errors"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Envelope decode failures. ErrMalformed covers undecodable bytes and
// payloads with more than one variant set; ErrUnknownEnvelope covers well-
// formed envelopes whose payload matches no known variant.
var (
	ErrMalformed       = errors.New("malformed message")
	ErrUnknownEnvelope = errors.New("unknown request")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeUnixMicro
	encMode, err = opts.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

// ClientEnvelope is one client request: a correlation id plus exactly one
// payload variant from exactly one request category.
type ClientEnvelope struct {
	ID     RequestID      `cbor:"id"`
	Auth   *AuthRequest   `cbor:"auth,omitempty"`
	Active *ActiveRequest `cbor:"active,omitempty"`
	Admin  *AdminRequest  `cbor:"admin,omitempty"`
}

// ServerEnvelope wraps a server-to-client message.
type ServerEnvelope struct {
	Message ServerMessage `cbor:"message"`
}

// variants counts the non-nil pointer fields of a union struct and returns
// the cbor tag of the last one seen. Unions are flat structs of pointer
// fields, so reflection here stays trivial.
func variants(union any) (int, string) {
	v := reflect.ValueOf(union).Elem()
	t := v.Type()

	n := 0
	tag := ""
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.Pointer || f.IsNil() {
			continue
		}
		n++
		tag, _, _ = strings.Cut(t.Field(i).Tag.Get("cbor"), ",")
	}
	return n, tag
}

// Tag names the single payload variant, qualified by category, e.g.
// "active/send_message". It is only meaningful after Validate.
func (e *ClientEnvelope) Tag() string {
	switch {
	case e.Auth != nil:
		_, tag := variants(e.Auth)
		return "auth/" + tag
	case e.Active != nil:
		_, tag := variants(e.Active)
		return "active/" + tag
	case e.Admin != nil:
		_, tag := variants(e.Admin)
		return "admin/" + tag
	default:
		return ""
	}
}

// Validate enforces the tagged-union shape: exactly one category present and
// exactly one variant inside it. No handler may run before this passes.
func (e *ClientEnvelope) Validate() error {
	categories := 0
	var inner int
	switch {
	case e.Auth != nil:
		categories++
		inner, _ = variants(e.Auth)
	case e.Active != nil:
		categories++
		inner, _ = variants(e.Active)
	case e.Admin != nil:
		categories++
		inner, _ = variants(e.Admin)
	}
	if e.Auth != nil && e.Active != nil || e.Auth != nil && e.Admin != nil || e.Active != nil && e.Admin != nil {
		return ErrMalformed
	}
	if categories == 0 || inner == 0 {
		return ErrUnknownEnvelope
	}
	if inner > 1 {
		return ErrMalformed
	}
	return nil
}

// DecodeClientEnvelope decodes and validates one client envelope. The
// returned error is ErrMalformed or ErrUnknownEnvelope, never a raw codec
// error. When the bytes decoded but validation failed, the envelope is
// returned alongside the error so the caller can still correlate a response
// to its request id.
func DecodeClientEnvelope(b []byte) (*ClientEnvelope, error) {
	var e ClientEnvelope
	if err := decMode.Unmarshal(b, &e); err != nil {
		return nil, ErrMalformed
	}
	if err := e.Validate(); err != nil {
		return &e, err
	}
	return &e, nil
}

// EncodeClientEnvelope is the client-side encoder; the server uses it only
// in tests.
func EncodeClientEnvelope(e *ClientEnvelope) ([]byte, error) {
	return encMode.Marshal(e)
}

// EncodeServerMessage encodes one server-to-client message.
func EncodeServerMessage(m *ServerMessage) ([]byte, error) {
	return encMode.Marshal(&ServerEnvelope{Message: *m})
}

// DecodeServerMessage is the client-side decoder; the server uses it only in
// tests.
func DecodeServerMessage(b []byte) (*ServerMessage, error) {
	var e ServerEnvelope
	if err := decMode.Unmarshal(b, &e); err != nil {
		return nil, ErrMalformed
	}
	return &e.Message, nil
}

// ResponseOk builds a success response for an active/admin request.
func ResponseOk(id RequestID, ok OkResponse) *ServerMessage {
	return &ServerMessage{Response: &Response{ID: id, Ok: &ok}}
}

// ResponseErr builds a failure response for an active/admin request.
func ResponseErr(id RequestID, err ErrResponse) *ServerMessage {
	return &ServerMessage{Response: &Response{ID: id, Err: &err}}
}

// AuthOkResponse builds a success response for an auth request.
func AuthOkResponse(id RequestID, ok AuthOk) *ServerMessage {
	return &ServerMessage{Response: &Response{ID: id, Auth: &AuthResponse{Ok: &ok}}}
}

// AuthErrResponse builds a failure response for an auth request.
func AuthErrResponse(id RequestID, err AuthError) *ServerMessage {
	return &ServerMessage{Response: &Response{ID: id, Auth: &AuthResponse{Err: &err}}}
}

// Event wraps an unsolicited push.
func Event(ev ServerEvent) *ServerMessage {
	return &ServerMessage{Event: &ev}
}

// Malformed is pushed when client bytes could not be decoded at all, so no
// request id is available to correlate against.
func Malformed() *ServerMessage {
	return &ServerMessage{MalformedMessage: &Unit{}}
}
