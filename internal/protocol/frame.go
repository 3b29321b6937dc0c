package protocol

import "github.com/pkg/errors"

// Magic is the 3-byte prefix that opens every frame.
const Magic = "PKR"

// MsgType distinguishes payload-carrying frames from bare ones.
type MsgType byte

const (
	// Payload marks a frame that carries a length-prefixed body.
	Payload MsgType = 'P'
	// NoPayload marks a frame with no body.
	NoPayload MsgType = 'N'
)

// ErrFraming is wrapped by every parser-detected framing violation.
// The caller must disconnect on any framing error — there is no
// resync.
var ErrFraming = errors.New("protocol: framing error")

// phase enumerates the parser's internal states, in wire order.
type phase int

const (
	phaseMagic1 phase = iota
	phaseMagic2
	phaseMagic3
	phaseType
	phaseCode
	phaseSize
	phasePayload
	phaseEndline
	phaseDone
)

const codeLen = 4
const sizeLen = 4

// Result is produced by one call to Parser.Feed.
type Result struct {
	BytesParsed int
	Done        bool
	Err         error
	Code        string
	Type        MsgType
	Payload     []byte // nil unless Type == Payload
}

// Parser is a stateful, single-client incremental frame parser. It
// must be explicitly Reset after a Done result before parsing the
// next frame; feeding more bytes in the Done state is itself a
// protocol error.
//
// The state machine walks Magic1..Endline one byte at a time so it
// can resume cleanly across arbitrary TCP chunk boundaries.
type Parser struct {
	ph         phase
	msgType    MsgType
	code       []byte
	codeIdx    int
	sizeDigits int
	payloadLen int
	payload    []byte
}

// NewParser returns a freshly reset Parser.
func NewParser() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// Reset returns the parser to its initial state, ready for the next
// frame.
func (p *Parser) Reset() {
	p.ph = phaseMagic1
	p.msgType = 0
	p.code = make([]byte, 0, codeLen)
	p.codeIdx = 0
	p.sizeDigits = 0
	p.payloadLen = 0
	p.payload = nil
}

// Feed consumes bytes from data starting at offset 0 until either a
// full frame completes, a framing error occurs, or data is exhausted.
// BytesParsed reports how many leading bytes of data were consumed;
// callers with more data than BytesParsed (multiple frames packed in
// one chunk) must call Feed again on the remainder after Reset.
//
// Feeding into a parser that previously returned Done without an
// intervening Reset is itself reported as a framing error.
func (p *Parser) Feed(data []byte) Result {
	if p.ph == phaseDone {
		return Result{Err: errors.Wrap(ErrFraming, "parser fed after Done without Reset")}
	}

	var res Result
	i := 0
	for ; i < len(data); i++ {
		done, err := p.step(data[i])
		if err != nil {
			res.Err = err
			break
		}
		if done {
			res.Done = true
			i++
			break
		}
	}
	res.BytesParsed = i

	if res.Done {
		p.ph = phaseDone
		res.Code = string(p.code)
		res.Type = p.msgType
		if p.msgType == Payload {
			res.Payload = p.payload
		}
	}
	return res
}

// step advances the state machine by one byte. It returns (true, nil)
// when the byte completes the frame (the trailing '\n'), (false, nil)
// when more bytes are needed, and (false, err) on a framing violation.
func (p *Parser) step(b byte) (bool, error) {
	switch p.ph {
	case phaseMagic1:
		if b != Magic[0] {
			return false, errors.Wrap(ErrFraming, "bad magic byte 1")
		}
		p.ph = phaseMagic2
	case phaseMagic2:
		if b != Magic[1] {
			return false, errors.Wrap(ErrFraming, "bad magic byte 2")
		}
		p.ph = phaseMagic3
	case phaseMagic3:
		if b != Magic[2] {
			return false, errors.Wrap(ErrFraming, "bad magic byte 3")
		}
		p.ph = phaseType
	case phaseType:
		switch MsgType(b) {
		case Payload, NoPayload:
			p.msgType = MsgType(b)
		default:
			return false, errors.Wrap(ErrFraming, "unknown message type byte")
		}
		p.ph = phaseCode
	case phaseCode:
		p.code = append(p.code, b)
		p.codeIdx++
		if p.codeIdx >= codeLen {
			if p.msgType == NoPayload {
				p.ph = phaseEndline
			} else {
				p.ph = phaseSize
			}
		}
	case phaseSize:
		if b < '0' || b > '9' {
			return false, errors.Wrap(ErrFraming, "non-digit in payload length")
		}
		p.payloadLen = p.payloadLen*10 + int(b-'0')
		p.sizeDigits++
		if p.sizeDigits >= sizeLen {
			p.payload = make([]byte, 0, p.payloadLen)
			if p.payloadLen == 0 {
				p.ph = phaseEndline
			} else {
				p.ph = phasePayload
			}
		}
	case phasePayload:
		p.payload = append(p.payload, b)
		if len(p.payload) == p.payloadLen {
			p.ph = phaseEndline
		}
	case phaseEndline:
		if b != '\n' {
			return false, errors.Wrap(ErrFraming, "missing trailing newline")
		}
		return true, nil
	}
	return false, nil
}

// EncodeFrame serializes code/payload into the outer wire frame:
// "PKR" T CCCC [LLLL payload] \n. hasPayload selects the frame type;
// when false, payload is ignored.
func EncodeFrame(code string, payload []byte, hasPayload bool) []byte {
	out := make([]byte, 0, len(Magic)+1+codeLen+sizeLen+len(payload)+1)
	out = append(out, Magic...)
	if hasPayload {
		out = append(out, byte(Payload))
	} else {
		out = append(out, byte(NoPayload))
	}
	out = append(out, code...)
	if hasPayload {
		out = append(out, EncodeBgInt(len(payload))...)
		out = append(out, payload...)
	}
	out = append(out, '\n')
	return out
}
