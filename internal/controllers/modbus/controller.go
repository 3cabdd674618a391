package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/ports"
)

// Holding registers (read/write).
const (
	RegAmbientTemperature uint16 = iota
	RegConductorTemperature
	RegWindSpeed
	RegWeathering
	RegTimeOfDay

	holdingRegisterCount
)

// Input registers (read only).
const (
	RegRatingHigh uint16 = iota
	RegRatingLow
	RegStatus

	inputRegisterCount
)

// Status register values.
const (
	StatusOK          uint16 = 0
	StatusDomainError uint16 = 1
)

// Config for the Modbus controller.
type Config struct {
	LineID string
	Addr   string
	UnitID byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

type Controller struct {
	svc ports.LineService
	cfg Config

	serv *mbserver.Server
}

func New(svc ports.LineService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	return &Controller{svc: svc, cfg: cfg}, nil
}

// Run starts the Modbus server. Reads are served from the line snapshot and
// writes are applied to the line immediately. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Handlers must be registered before ListenTCP starts the server goroutines.
	serv.RegisterFunctionHandler(3, c.readHoldingRegisters)
	serv.RegisterFunctionHandler(4, c.readInputRegisters)
	serv.RegisterFunctionHandler(6, c.writeSingleRegister)
	serv.RegisterFunctionHandler(16, c.writeMultipleRegisters)

	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}

	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

func (c *Controller) readHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame.GetData(), holdingRegisterCount)
	if exc != &mbserver.Success {
		return []byte{}, exc
	}
	cond := c.svc.Get().Condition
	regs := []uint16{
		RegAmbientTemperature:   encodeScaled(cond.AmbientTemperature),
		RegConductorTemperature: encodeScaled(cond.ConductorTemperature),
		RegWindSpeed:            encodeScaled(cond.WindSpeed),
		RegWeathering:           uint16(cond.Weathering),
		RegTimeOfDay:            uint16(cond.TimeOfDay),
	}
	return registersResponse(regs[start : start+qty]), &mbserver.Success
}

func (c *Controller) readInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, exc := readRange(frame.GetData(), inputRegisterCount)
	if exc != &mbserver.Success {
		return []byte{}, exc
	}
	snap := c.svc.Get()
	status := StatusOK
	var rating uint32
	if snap.RatingAvailable() {
		rating = encodeRating(snap.Rating)
	} else {
		status = StatusDomainError
	}
	regs := []uint16{
		RegRatingHigh: uint16(rating >> 16),
		RegRatingLow:  uint16(rating),
		RegStatus:     status,
	}
	return registersResponse(regs[start : start+qty]), &mbserver.Success
}

func (c *Controller) writeSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if exc := c.writeRegister(addr, value); exc != &mbserver.Success {
		return []byte{}, exc
	}

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

func (c *Controller) writeMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if int(start)+int(quantity) > int(holdingRegisterCount) {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	for i := 0; i < int(quantity); i++ {
		val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
		if exc := c.writeRegister(start+uint16(i), val); exc != &mbserver.Success {
			return []byte{}, exc
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) writeRegister(addr, value uint16) *mbserver.Exception {
	var err error
	switch addr {
	case RegAmbientTemperature:
		err = c.svc.SetAmbientTemperature(decodeScaled(value))
	case RegConductorTemperature:
		err = c.svc.SetConductorTemperature(decodeScaled(value))
	case RegWindSpeed:
		err = c.svc.SetWindSpeed(decodeScaled(value))
	case RegWeathering:
		err = c.svc.SetWeathering(ampacity.Weathering(value))
	case RegTimeOfDay:
		err = c.svc.SetTimeOfDay(ampacity.TimeOfDay(value))
	default:
		return &mbserver.IllegalDataAddress
	}
	if err != nil {
		return &mbserver.IllegalDataValue
	}
	return &mbserver.Success
}

// readRange parses the start/quantity pair of a read request against a
// register bank of size n.
func readRange(data []byte, n uint16) (start, qty int, exc *mbserver.Exception) {
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > 125 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	if start+qty > int(n) {
		return 0, 0, &mbserver.IllegalDataAddress
	}
	return start, qty, &mbserver.Success
}

func registersResponse(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

// Scale applied to temperatures and wind speed on the wire.
const Scale int = 100

// RatingScale converts amperes to the deci-ampere input registers.
const RatingScale float64 = 10

func encodeScaled(v float64) uint16 {
	r := min(max(int(math.Round(v*float64(Scale))), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func decodeScaled(u uint16) float64 {
	i := int16(u)
	return float64(i) / float64(Scale)
}

func encodeRating(a float64) uint32 {
	r := math.Round(a * RatingScale)
	if !(r > 0) {
		return 0
	}
	if r > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(r)
}

func decodeRating(high, low uint16) float64 {
	return float64(uint32(high)<<16|uint32(low)) / RatingScale
}
