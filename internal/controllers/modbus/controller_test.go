package modbusctrl

import (
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/modbus"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/line"
	"github.com/Agrid-Dev/linerating/internal/testutil"
)

// lockedService guards the shared fake; mbserver serves requests on its own goroutines.
type lockedService struct {
	mu sync.Mutex
	f  *testutil.FakeLineService
}

func (l *lockedService) Get() line.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Get()
}
func (l *lockedService) SetCondition(c ampacity.AmbientCondition) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.SetCondition(c)
}
func (l *lockedService) UpdateCondition(mutate func(*ampacity.AmbientCondition)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.UpdateCondition(mutate)
}
func (l *lockedService) SetAmbientTemperature(v float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.SetAmbientTemperature(v)
}
func (l *lockedService) SetConductorTemperature(v float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.SetConductorTemperature(v)
}
func (l *lockedService) SetWindSpeed(v float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.SetWindSpeed(v)
}
func (l *lockedService) SetWeathering(w ampacity.Weathering) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !w.Valid() {
		return ampacity.ErrInvalidWeathering
	}
	return l.f.SetWeathering(w)
}
func (l *lockedService) SetTimeOfDay(t ampacity.TimeOfDay) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !t.Valid() {
		return ampacity.ErrInvalidTimeOfDay
	}
	return l.f.SetTimeOfDay(t)
}

func (l *lockedService) fake(fn func(f *testutil.FakeLineService)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.f)
}

func findFreeTCPAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	a := l.Addr().String()
	_ = l.Close()
	return a
}

const startupDelay = 50 * time.Millisecond

func startController(t *testing.T, svc *lockedService) modbus.Client {
	t.Helper()
	addr := findFreeTCPAddr(t)

	ctrl, err := New(svc, Config{LineID: "span12", Addr: addr, UnitID: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := t.Context()
	go func() {
		_ = ctrl.Run(ctx)
	}()

	time.Sleep(startupDelay)

	handler := modbus.NewTCPClientHandler(addr)
	if err := handler.Connect(); err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = handler.Close() })
	return modbus.NewClient(handler)
}

func TestNewValidation(t *testing.T) {
	svc := &lockedService{f: testutil.NewFakeLineService()}
	if _, err := New(svc, Config{}); err == nil {
		t.Fatal("expected error when UnitID is zero")
	}
	c, err := New(svc, Config{UnitID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if c.cfg.Addr != "127.0.0.1:1502" {
		t.Fatalf("expected default Addr, got %q", c.cfg.Addr)
	}
}

func TestModbusControllerHandlers(t *testing.T) {
	svc := &lockedService{f: testutil.NewFakeLineService()}
	client := startController(t, svc)

	// Read holding registers 0..4
	res, err := client.ReadHoldingRegisters(0, 5)
	if err != nil {
		t.Fatalf("read holding: %v", err)
	}
	if len(res) != 10 {
		t.Fatalf("expected 10 bytes got %d", len(res))
	}
	get := func(i int) uint16 { return binary.BigEndian.Uint16(res[i*2 : i*2+2]) }
	if get(0) != encodeScaled(35) || get(1) != encodeScaled(85) || get(2) != encodeScaled(1) {
		t.Fatalf("condition mismatch: % x", res)
	}
	if get(3) != uint16(ampacity.WeatheringIndustrial) || get(4) != uint16(ampacity.SummerNoon) {
		t.Fatalf("enum mismatch: % x", res)
	}

	// Read the rating and status
	in, err := client.ReadInputRegisters(0, 3)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	inGet := func(i int) uint16 { return binary.BigEndian.Uint16(in[i*2 : i*2+2]) }
	if got := decodeRating(inGet(0), inGet(1)); got != 732.8 {
		t.Fatalf("expected rating 732.8, got %v", got)
	}
	if inGet(2) != StatusOK {
		t.Fatalf("expected status ok, got %d", inGet(2))
	}

	// Write ambient temperature register
	newTA := encodeScaled(21.75)
	if _, err := client.WriteSingleRegister(RegAmbientTemperature, newTA); err != nil {
		t.Fatalf("write register: %v", err)
	}
	svc.fake(func(f *testutil.FakeLineService) {
		if !f.SetAmbientCalled || f.SetAmbientArg != 21.75 {
			t.Fatalf("SetAmbientTemperature not called with 21.75: called=%v arg=%v", f.SetAmbientCalled, f.SetAmbientArg)
		}
	})

	// Write wind speed and weathering in one request
	if _, err := client.WriteMultipleRegisters(RegWindSpeed, 2, []byte{0x00, 0x96, 0x00, byte(ampacity.WeatheringRural)}); err != nil {
		t.Fatalf("write multiple: %v", err)
	}
	svc.fake(func(f *testutil.FakeLineService) {
		if f.SetWindSpeedArg != 1.5 {
			t.Fatalf("expected wind speed 1.5, got %v", f.SetWindSpeedArg)
		}
		if f.SetWeatheringArg != ampacity.WeatheringRural {
			t.Fatalf("expected rural, got %v", f.SetWeatheringArg)
		}
	})
}

func TestModbusRejectsInvalidWrites(t *testing.T) {
	svc := &lockedService{f: testutil.NewFakeLineService()}
	client := startController(t, svc)

	if _, err := client.WriteSingleRegister(RegTimeOfDay, 9); err == nil {
		t.Fatal("expected exception for unknown time of day")
	}
	if _, err := client.WriteSingleRegister(40, 1); err == nil {
		t.Fatal("expected exception for unmapped register")
	}
	if _, err := client.ReadInputRegisters(2, 2); err == nil {
		t.Fatal("expected exception for read past the input bank")
	}
	svc.fake(func(f *testutil.FakeLineService) {
		if f.SetTimeOfDayCalled {
			t.Fatal("SetTimeOfDay should not reach the fake")
		}
	})
}

func TestModbusStatusOnRatingError(t *testing.T) {
	svc := &lockedService{f: testutil.NewFakeLineService()}
	svc.fake(func(f *testutil.FakeLineService) {
		f.S.Rating = 0
		f.S.RatingErr = ampacity.ErrNegativeHeatBalance
	})
	client := startController(t, svc)

	in, err := client.ReadInputRegisters(0, 3)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if binary.BigEndian.Uint16(in[4:6]) != StatusDomainError {
		t.Fatalf("expected domain error status, got % x", in)
	}
	if binary.BigEndian.Uint16(in[0:2]) != 0 || binary.BigEndian.Uint16(in[2:4]) != 0 {
		t.Fatalf("expected zero rating, got % x", in)
	}
}

func TestScaledEncoding(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{21.25, 21.25},
		{-5.5, -5.5},
		{1000, 327.67}, // saturates at int16
	}
	for _, tc := range cases {
		if got := decodeScaled(encodeScaled(tc.in)); got != tc.want {
			t.Fatalf("round trip %v: got %v want %v", tc.in, got, tc.want)
		}
	}
	if encodeRating(-1) != 0 {
		t.Fatal("negative rating should encode as 0")
	}
	if got := decodeRating(0x0001, 0x0000); got != 6553.6 {
		t.Fatalf("expected 6553.6, got %v", got)
	}
}
