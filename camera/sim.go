package camera

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/candelalabs/gencam/genicam"
)

const (
	simVendor   = "Candela Labs"
	simFirmware = "1.4.2"

	statsWindow   = 64
	chunkHeadroom = 128 // worst case trailer for one frame
)

var userSetNames = []string{"Default", "UserSet0", "UserSet1"}

// SimConfig configures a simulated camera.  The zero value is usable;
// missing fields take the defaults noted on each.
type SimConfig struct {
	// Serial and Model identify the device, defaults "SIM-0000" and
	// "Gencam Sim"
	Serial string
	Model  string

	// UserID is the power-on DeviceUserID
	UserID string

	// Width and Height are the sensor size, default 640x480.  Width
	// must be a multiple of 4 and Height a multiple of 2.
	Width, Height int

	// HotPixels are sensor defects baked into every generated frame,
	// in full-frame coordinates; they read saturated
	HotPixels []Defect

	// Seed seeds the noise generator, default 1
	Seed int64

	// IncompleteEvery delivers every Nth frame with the bottom half of
	// its payload lost; 0 disables
	IncompleteEvery int

	// Temperature is the power-on sensor temperature in Celsius,
	// default 35
	Temperature float64

	// WarnTemperature is the TemperatureWarning threshold, default 60
	WarnTemperature float64

	// TempRise is the heating per generated frame in Celsius, default
	// 0.002
	TempRise float64
}

func (c SimConfig) withDefaults() SimConfig {
	if c.Serial == "" {
		c.Serial = "SIM-0000"
	}
	if c.Model == "" {
		c.Model = "Gencam Sim"
	}
	if c.Width == 0 {
		c.Width = 640
	}
	if c.Height == 0 {
		c.Height = 480
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Temperature == 0 {
		c.Temperature = 35
	}
	if c.WarnTemperature == 0 {
		c.WarnTemperature = 60
	}
	if c.TempRise == 0 {
		c.TempRise = 0.002
	}
	return c
}

// Sim is a software camera.  It implements Camera completely: a full
// feature tree, fixed-count and continuous acquisition, triggering,
// chunk data, user sets, and device events, with frames synthesized
// instead of read from a sensor.
type Sim struct {
	cfg SimConfig

	// mu guards the mutable device state below.  Node hooks lock it,
	// so nothing that holds it may set or execute nodes.
	mu          sync.Mutex
	initialized bool
	acquiring   bool
	userID      string
	exposure    float64 // us
	gain        float64 // dB
	blackLevel  float64 // DN
	frameRate   float64 // Hz
	chunkActive bool
	chunkMask   ChunkMask
	trigOn      bool
	temp        float64
	warned      bool
	userSets    map[string][]byte

	nm *genicam.NodeMap
	tl *genicam.NodeMap

	frames   chan *Frame
	cancel   context.CancelFunc
	done     chan struct{}
	limiter  *rate.Limiter
	trigFire chan struct{}

	imgReg imageRegistry
	devReg deviceRegistry
	stats  *Stats

	pool sync.Pool
	rng  *rand.Rand
}

var _ Camera = (*Sim)(nil)

// NewSim returns a simulated camera in its power-on state.
func NewSim(cfg SimConfig) *Sim {
	cfg = cfg.withDefaults()
	s := &Sim{
		cfg:       cfg,
		userID:    cfg.UserID,
		exposure:  10000,
		frameRate: 30,
		chunkMask: ChunkAll,
		temp:      cfg.Temperature,
		userSets:  map[string][]byte{},
		trigFire:  make(chan struct{}, 1),
		stats:     NewStats(statsWindow),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
	s.buildNodes()
	var buf bytes.Buffer
	if err := s.nm.SaveConfig(&buf); err == nil {
		for _, name := range userSetNames {
			s.userSets[name] = append([]byte(nil), buf.Bytes()...)
		}
	}
	return s
}

// lockedWhileAcquiring is the OnSet guard for nodes that cannot change
// while the frame source runs.
func (s *Sim) lockedWhileAcquiring() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquiring {
		return genicam.ErrAcquisitionActive
	}
	return nil
}

func (s *Sim) buildNodes() {
	cfg := s.cfg

	vendor := genicam.NewString("DeviceVendorName", genicam.ReadOnly, simVendor, 0)
	model := genicam.NewString("DeviceModelName", genicam.ReadOnly, cfg.Model, 0)
	serial := genicam.NewString("DeviceSerialNumber", genicam.ReadOnly, cfg.Serial, 0)
	firmware := genicam.NewString("DeviceFirmwareVersion", genicam.ReadOnly, simFirmware, 0)
	userID := genicam.NewString("DeviceUserID", genicam.ReadWrite, cfg.UserID, 32)
	userID.OnSet = func(v string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.userID = v
		return nil
	}
	temp := genicam.NewFloat("DeviceTemperature", genicam.ReadOnly, cfg.Temperature, -40, 100, "C")
	temp.OnGet = func() float64 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.temp
	}
	temp.Describe("Device Temperature", "Sensor temperature in degrees Celsius")

	sensorW := genicam.NewInteger("SensorWidth", genicam.ReadOnly, int64(cfg.Width), 0, int64(cfg.Width), 1)
	sensorH := genicam.NewInteger("SensorHeight", genicam.ReadOnly, int64(cfg.Height), 0, int64(cfg.Height), 1)
	width := genicam.NewInteger("Width", genicam.ReadWrite, int64(cfg.Width), 16, int64(cfg.Width), 4)
	height := genicam.NewInteger("Height", genicam.ReadWrite, int64(cfg.Height), 2, int64(cfg.Height), 2)
	offX := genicam.NewInteger("OffsetX", genicam.ReadWrite, 0, 0, int64(cfg.Width-16), 2)
	offY := genicam.NewInteger("OffsetY", genicam.ReadWrite, 0, 0, int64(cfg.Height-2), 2)
	width.OnSet = func(v int64) error {
		if err := s.lockedWhileAcquiring(); err != nil {
			return err
		}
		off, _ := offX.Value()
		if v+off > int64(cfg.Width) {
			return genicam.ErrOutOfRange
		}
		return nil
	}
	height.OnSet = func(v int64) error {
		if err := s.lockedWhileAcquiring(); err != nil {
			return err
		}
		off, _ := offY.Value()
		if v+off > int64(cfg.Height) {
			return genicam.ErrOutOfRange
		}
		return nil
	}
	offX.OnSet = func(v int64) error {
		if err := s.lockedWhileAcquiring(); err != nil {
			return err
		}
		w, _ := width.Value()
		if v+w > int64(cfg.Width) {
			return genicam.ErrOutOfRange
		}
		return nil
	}
	offY.OnSet = func(v int64) error {
		if err := s.lockedWhileAcquiring(); err != nil {
			return err
		}
		h, _ := height.Value()
		if v+h > int64(cfg.Height) {
			return genicam.ErrOutOfRange
		}
		return nil
	}
	pixFmt := genicam.NewEnumeration("PixelFormat", genicam.ReadWrite, "Mono8",
		"Mono8", "Mono12Packed", "Mono16")
	pixFmt.OnSet = func(string) error { return s.lockedWhileAcquiring() }
	reverseX := genicam.NewBoolean("ReverseX", genicam.ReadWrite, false)
	reverseX.OnSet = func(bool) error { return s.lockedWhileAcquiring() }
	reverseX.Describe("Reverse X", "Mirror each row horizontally at readout")

	acqMode := genicam.NewEnumeration("AcquisitionMode", genicam.ReadWrite, "Continuous",
		"Continuous", "SingleFrame", "MultiFrame")
	acqMode.OnSet = func(string) error { return s.lockedWhileAcquiring() }
	frameCount := genicam.NewInteger("AcquisitionFrameCount", genicam.ReadWrite, 10, 1, 65535, 1)
	frameCount.OnSet = func(int64) error { return s.lockedWhileAcquiring() }
	frameRate := genicam.NewFloat("AcquisitionFrameRate", genicam.ReadWrite, 30, 0.1, 500, "Hz")
	frameRate.OnSet = func(v float64) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.frameRate = v
		if s.acquiring && s.limiter != nil {
			s.limiter.SetLimit(rate.Limit(v))
		}
		return nil
	}
	expTime := genicam.NewFloat("ExposureTime", genicam.ReadWrite, 10000, 10, 10e6, "us")
	expTime.OnSet = func(v float64) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.exposure = v
		return nil
	}
	expTime.Describe("Exposure Time", "Integration time in microseconds")
	expAuto := genicam.NewEnumeration("ExposureAuto", genicam.ReadWrite, "Off",
		"Off", "Once", "Continuous")
	trigMode := genicam.NewEnumeration("TriggerMode", genicam.ReadWrite, "Off", "Off", "On")
	trigMode.OnSet = func(v string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.trigOn = v == "On"
		return nil
	}
	trigSource := genicam.NewEnumeration("TriggerSource", genicam.ReadWrite, "Software",
		"Software", "Line0")
	trigSoft := genicam.NewCommand("TriggerSoftware", genicam.WriteOnly)
	trigSoft.OnExecute = func() error {
		s.mu.Lock()
		acquiring := s.acquiring
		s.mu.Unlock()
		if !acquiring {
			return genicam.ErrAcquisitionInactive
		}
		s.Fire()
		return nil
	}
	// node-driven twins of BeginAcquisition/EndAcquisition
	acqStart := genicam.NewCommand("AcquisitionStart", genicam.WriteOnly)
	acqStart.OnExecute = func() error { return s.BeginAcquisition() }
	acqStop := genicam.NewCommand("AcquisitionStop", genicam.WriteOnly)
	acqStop.OnExecute = func() error { return s.EndAcquisition() }

	gain := genicam.NewFloat("Gain", genicam.ReadWrite, 0, 0, 47.99, "dB")
	gain.OnSet = func(v float64) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.gain = v
		return nil
	}
	gainAuto := genicam.NewEnumeration("GainAuto", genicam.ReadWrite, "Off",
		"Off", "Once", "Continuous")
	blackLevel := genicam.NewFloat("BlackLevel", genicam.ReadWrite, 0, 0, 255, "DN")
	blackLevel.OnSet = func(v float64) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.blackLevel = v
		return nil
	}
	gamma := genicam.NewFloat("Gamma", genicam.ReadWrite, 1, 0.25, 4, "")

	chunkMode := genicam.NewBoolean("ChunkModeActive", genicam.ReadWrite, false)
	chunkMode.OnSet = func(v bool) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.chunkActive = v
		return nil
	}
	chunkMode.Describe("Chunk Mode Active", "Append per-frame metadata to the payload")
	chunkSel := genicam.NewEnumeration("ChunkSelector", genicam.ReadWrite, "FrameID", chunkEntryNames...)
	chunkEnable := genicam.NewBoolean("ChunkEnable", genicam.ReadWrite, true)
	chunkEnable.OnGet = func() bool {
		sel, _ := chunkSel.Value()
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.chunkMask&chunkMaskByName[sel] != 0
	}
	chunkEnable.OnSet = func(v bool) error {
		sel, _ := chunkSel.Value()
		s.mu.Lock()
		defer s.mu.Unlock()
		if v {
			s.chunkMask |= chunkMaskByName[sel]
		} else {
			s.chunkMask &^= chunkMaskByName[sel]
		}
		return nil
	}
	chunkEnable.Describe("Chunk Enable", "Include the selected entry in the trailer")

	userSel := genicam.NewEnumeration("UserSetSelector", genicam.ReadWrite, "Default", userSetNames...)
	userLoad := genicam.NewCommand("UserSetLoad", genicam.ReadWrite)
	userSave := genicam.NewCommand("UserSetSave", genicam.ReadWrite)
	userLoad.OnExecute = func() error {
		sel, err := userSel.Value()
		if err != nil {
			return err
		}
		s.mu.Lock()
		if s.acquiring {
			s.mu.Unlock()
			return genicam.ErrAcquisitionActive
		}
		data := s.userSets[sel]
		s.mu.Unlock()
		// LoadConfig sets nodes, whose hooks take s.mu; it must run unlocked
		return s.nm.LoadConfig(bytes.NewReader(data))
	}
	userSave.OnExecute = func() error {
		sel, err := userSel.Value()
		if err != nil {
			return err
		}
		if sel == "Default" {
			return genicam.ErrNotWritable
		}
		s.mu.Lock()
		if s.acquiring {
			s.mu.Unlock()
			return genicam.ErrAcquisitionActive
		}
		s.mu.Unlock()
		var buf bytes.Buffer
		if err := s.nm.SaveConfig(&buf); err != nil {
			return err
		}
		s.mu.Lock()
		s.userSets[sel] = buf.Bytes()
		s.mu.Unlock()
		return nil
	}

	devReset := genicam.NewCommand("DeviceReset", genicam.WriteOnly)
	devReset.OnExecute = func() error {
		s.mu.Lock()
		if s.acquiring {
			s.mu.Unlock()
			return genicam.ErrAcquisitionActive
		}
		data := s.userSets["Default"]
		s.temp = s.cfg.Temperature
		s.warned = false
		s.chunkMask = ChunkAll
		s.mu.Unlock()
		// the Default set is the power-on snapshot taken in NewSim
		return s.nm.LoadConfig(bytes.NewReader(data))
	}
	devReset.Describe("Device Reset", "Return the feature tree and thermal model to the power-on state")

	payloadSize := genicam.NewInteger("PayloadSize", genicam.ReadOnly, 0, 0, math.MaxInt64, 1)
	payloadSize.OnGet = func() int64 {
		w, _ := width.Value()
		h, _ := height.Value()
		fmtName, _ := pixFmt.Value()
		format, err := ParsePixelFormat(fmtName)
		if err != nil {
			return 0
		}
		return int64(format.RowBytes(int(w))) * h
	}
	payloadSize.Describe("Payload Size", "Bytes per frame at the current geometry, trailer excluded")

	nm := genicam.NewMap()
	mustAdd(nm, "DeviceInformation", vendor, model, serial, firmware, userID)
	mustAdd(nm, "DeviceControl", temp, devReset)
	mustAdd(nm, "ImageFormatControl", sensorW, sensorH, width, height, offX, offY, pixFmt, reverseX)
	mustAdd(nm, "AcquisitionControl", acqMode, frameCount, frameRate, expTime, expAuto,
		trigMode, trigSource, trigSoft, acqStart, acqStop)
	mustAdd(nm, "AnalogControl", gain, gainAuto, blackLevel, gamma)
	mustAdd(nm, "ChunkDataControl", chunkMode, chunkSel, chunkEnable)
	mustAdd(nm, "UserSetControl", userSel, userLoad, userSave)
	mustAdd(nm, "TransportLayerControl", payloadSize)
	s.nm = nm

	deviceID := genicam.NewString("DeviceID", genicam.ReadOnly, cfg.Serial, 0)
	bufCount := genicam.NewInteger("StreamBufferCount", genicam.ReadWrite, 10, 1, 64, 1)
	bufCount.OnSet = func(int64) error { return s.lockedWhileAcquiring() }
	droppedCount := genicam.NewInteger("StreamDroppedFrameCount", genicam.ReadOnly, 0, 0, math.MaxInt64, 1)
	droppedCount.OnGet = func() int64 {
		return int64(s.stats.Snapshot().Dropped)
	}
	tl := genicam.NewMap()
	mustAdd(tl, "DeviceControl", deviceID)
	mustAdd(tl, "StreamControl", bufCount, droppedCount)
	s.tl = tl
}

// mustAdd registers nodes, panicking on failure; the sim's tree is
// static, so a duplicate name is a programming error.
func mustAdd(nm *genicam.NodeMap, category string, nodes ...genicam.Node) {
	if err := nm.Add(category, nodes...); err != nil {
		panic(err)
	}
}

// Info returns the device identity.
func (s *Sim) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		Vendor:    simVendor,
		Model:     s.cfg.Model,
		Serial:    s.cfg.Serial,
		Firmware:  simFirmware,
		UserID:    s.userID,
		TLType:    "Sim",
		Interface: "SimBus0",
	}
}

// NodeMap returns the device feature tree.
func (s *Sim) NodeMap() *genicam.NodeMap { return s.nm }

// TLNodeMap returns the transport layer feature tree.
func (s *Sim) TLNodeMap() *genicam.NodeMap { return s.tl }

// Init prepares the device for use.
func (s *Sim) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return genicam.ErrResourceInUse
	}
	s.initialized = true
	return nil
}

// Deinit releases the device.
func (s *Sim) Deinit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquiring {
		return genicam.ErrAcquisitionActive
	}
	if !s.initialized {
		return genicam.ErrNotInitialized
	}
	s.initialized = false
	return nil
}

// acqParams is the geometry snapshot one acquisition runs with.  Tuning
// that may change live (exposure, gain, chunk mode) is read per frame
// instead.
type acqParams struct {
	width, height    int
	offsetX, offsetY int
	stride           int
	format           PixelFormat
	reverseX         bool
	mode             string
	count            int64
	incompleteEvery  int
	hot              map[int][]int // ROI row -> ROI columns
}

// BeginAcquisition arms the frame source.
func (s *Sim) BeginAcquisition() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return genicam.ErrNotInitialized
	}
	if s.acquiring {
		s.mu.Unlock()
		return genicam.ErrAcquisitionActive
	}
	// flip first so concurrent node writes are rejected while we read
	s.acquiring = true
	p, bufs, err := s.snapshot()
	if err != nil {
		s.acquiring = false
		s.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.frames = make(chan *Frame, bufs)
	s.limiter = rate.NewLimiter(rate.Limit(s.frameRate), 1)
	// discard any trigger edge left over from the last acquisition
	select {
	case <-s.trigFire:
	default:
	}
	frames, done, limiter := s.frames, s.done, s.limiter
	s.mu.Unlock()
	go s.produce(ctx, p, frames, done, limiter)
	return nil
}

// snapshot reads the geometry nodes into an acqParams.  Callers hold
// s.mu; none of the nodes read here have OnGet hooks.
func (s *Sim) snapshot() (acqParams, int, error) {
	p := acqParams{incompleteEvery: s.cfg.IncompleteEvery}
	w, err := s.nm.GetInt("Width")
	if err != nil {
		return p, 0, err
	}
	h, err := s.nm.GetInt("Height")
	if err != nil {
		return p, 0, err
	}
	ox, err := s.nm.GetInt("OffsetX")
	if err != nil {
		return p, 0, err
	}
	oy, err := s.nm.GetInt("OffsetY")
	if err != nil {
		return p, 0, err
	}
	fmtName, err := s.nm.GetEnum("PixelFormat")
	if err != nil {
		return p, 0, err
	}
	format, err := ParsePixelFormat(fmtName)
	if err != nil {
		return p, 0, err
	}
	reverse, err := s.nm.GetBool("ReverseX")
	if err != nil {
		return p, 0, err
	}
	mode, err := s.nm.GetEnum("AcquisitionMode")
	if err != nil {
		return p, 0, err
	}
	count, err := s.nm.GetInt("AcquisitionFrameCount")
	if err != nil {
		return p, 0, err
	}
	bufs, err := s.tl.GetInt("StreamBufferCount")
	if err != nil {
		return p, 0, err
	}
	p.width = int(w)
	p.height = int(h)
	p.offsetX = int(ox)
	p.offsetY = int(oy)
	p.format = format
	p.stride = format.RowBytes(p.width)
	p.reverseX = reverse
	p.mode = mode
	p.count = count
	p.hot = map[int][]int{}
	for _, hp := range s.cfg.HotPixels {
		x := hp.X - p.offsetX
		y := hp.Y - p.offsetY
		if x >= 0 && x < p.width && y >= 0 && y < p.height {
			p.hot[y] = append(p.hot[y], x)
		}
	}
	return p, int(bufs), nil
}

// live is the per-frame tuning read from the device state.
type live struct {
	exposure   float64
	gain       float64
	blackLevel float64
	chunk      bool
	chunkMask  ChunkMask
	trigOn     bool
}

func (s *Sim) liveParams() live {
	s.mu.Lock()
	defer s.mu.Unlock()
	return live{
		exposure:   s.exposure,
		gain:       s.gain,
		blackLevel: s.blackLevel,
		chunk:      s.chunkActive,
		chunkMask:  s.chunkMask,
		trigOn:     s.trigOn,
	}
}

// heat advances the thermal model by one frame and reports whether the
// warning threshold was just crossed.
func (s *Sim) heat() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp += s.cfg.TempRise
	if !s.warned && s.temp >= s.cfg.WarnTemperature {
		s.warned = true
		return s.temp, true
	}
	return s.temp, false
}

func (s *Sim) produce(ctx context.Context, p acqParams, frames chan *Frame, done chan struct{}, limiter *rate.Limiter) {
	defer close(done)
	total := int64(-1)
	switch p.mode {
	case "SingleFrame":
		total = 1
	case "MultiFrame":
		total = p.count
	}
	for id := uint64(0); total < 0 || int64(id) < total; id++ {
		lv := s.liveParams()
		if lv.trigOn {
			select {
			case <-ctx.Done():
				return
			case <-s.trigFire:
			}
		} else {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		f := s.makeFrame(p, lv, id)
		temp, warn := s.heat()
		s.devReg.dispatch(DeviceEvent{
			Name:      EventExposureEnd,
			Timestamp: f.Timestamp,
			FrameID:   f.ID,
			Value:     lv.exposure,
		})
		if warn {
			s.devReg.dispatch(DeviceEvent{
				Name:      EventTemperatureWarning,
				Timestamp: f.Timestamp,
				Value:     temp,
			})
		}
		s.stats.RecordDelivery(f.Timestamp, f.Complete())
		s.imgReg.dispatch(f)
		select {
		case frames <- f:
		default:
			// ring full; evict the oldest unretrieved frame.  only
			// this goroutine sends, so after the pop there is room.
			select {
			case old := <-frames:
				old.Release()
				s.stats.RecordDrop()
			default:
			}
			frames <- f
		}
	}
}

func (s *Sim) getBuf(need int) []byte {
	if v := s.pool.Get(); v != nil {
		b := v.([]byte)
		if cap(b) >= need+chunkHeadroom {
			return b[:need]
		}
	}
	return make([]byte, need, need+chunkHeadroom)
}

func (s *Sim) releaseFrame(f *Frame) {
	if f.Data != nil {
		s.pool.Put(f.Data)
		f.Data = nil
	}
}

func (s *Sim) makeFrame(p acqParams, lv live, id uint64) *Frame {
	b := s.getBuf(p.stride * p.height)
	maxv := 1<<uint(p.format.BitsPerPixel()) - 1
	// signal level: black level plus a photon term that scales with
	// exposure and linearized gain, referenced to 8 bit full scale
	gainLin := math.Pow(10, lv.gain/20)
	base := (lv.blackLevel + 48*(lv.exposure/10000)*gainLin) * float64(maxv) / 255
	if base > float64(maxv) {
		base = float64(maxv)
	}
	step := maxv/256 + 1
	px := make([]uint16, p.width)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			v := int(base) + (x+y+int(id))%48*step + s.rng.Intn(4*step)
			if v > maxv {
				v = maxv
			}
			px[x] = uint16(v)
		}
		for _, x := range p.hot[y] {
			px[x] = uint16(maxv)
		}
		if p.reverseX {
			for i, j := 0, len(px)-1; i < j; i, j = i+1, j-1 {
				px[i], px[j] = px[j], px[i]
			}
		}
		encodeRow(b[y*p.stride:(y+1)*p.stride], px, p.format)
	}
	status := StatusComplete
	if p.incompleteEvery > 0 && (id+1)%uint64(p.incompleteEvery) == 0 {
		for i := len(b) / 2; i < len(b); i++ {
			b[i] = 0
		}
		status = StatusIncomplete
	}
	ts := time.Now()
	f := &Frame{
		ID:        id,
		Width:     p.width,
		Height:    p.height,
		Stride:    p.stride,
		Format:    p.format,
		Status:    status,
		Timestamp: ts,
		Data:      b,
		release:   s.releaseFrame,
	}
	if lv.chunk {
		b = AppendChunk(b, ChunkData{
			ExposureTime: lv.exposure,
			Gain:         lv.gain,
			BlackLevel:   lv.blackLevel,
			FrameID:      id,
			Timestamp:    uint64(ts.UnixNano()),
			Width:        uint32(p.width),
			Height:       uint32(p.height),
			OffsetX:      uint32(p.offsetX),
			OffsetY:      uint32(p.offsetY),
			PixelFormat:  p.format,
		}, lv.chunkMask)
		if payload, c, err := ParseChunk(b); err == nil {
			f.Data = payload
			f.Chunk = c
		}
	}
	return f
}

// encodeRow packs one row of pixel values into dst per format.  It is
// the inverse of Frame.Mono16 for a single row.
func encodeRow(dst []byte, px []uint16, format PixelFormat) {
	switch format {
	case Mono8:
		for x, v := range px {
			dst[x] = byte(v)
		}
	case Mono12Packed:
		for x := 0; x < len(px); x += 2 {
			p0 := px[x]
			p1 := px[x+1]
			dst[x/2*3] = byte(p0 >> 4)
			dst[x/2*3+1] = byte(p1&0x0F)<<4 | byte(p0&0x0F)
			dst[x/2*3+2] = byte(p1 >> 4)
		}
	case Mono16:
		for x, v := range px {
			dst[2*x] = byte(v)
			dst[2*x+1] = byte(v >> 8)
		}
	}
}

// EndAcquisition stops the frame source and discards undelivered
// frames.
func (s *Sim) EndAcquisition() error {
	s.mu.Lock()
	if !s.acquiring {
		s.mu.Unlock()
		return genicam.ErrAcquisitionInactive
	}
	cancel, done, frames := s.cancel, s.done, s.frames
	s.mu.Unlock()
	cancel()
	<-done
	for {
		select {
		case f := <-frames:
			f.Release()
		default:
			s.mu.Lock()
			s.acquiring = false
			s.limiter = nil
			s.mu.Unlock()
			return nil
		}
	}
}

// NextFrame returns the next frame from the buffer ring, waiting up to
// timeout.
func (s *Sim) NextFrame(timeout time.Duration) (*Frame, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, genicam.ErrNotInitialized
	}
	if !s.acquiring {
		s.mu.Unlock()
		return nil, genicam.ErrAcquisitionInactive
	}
	frames := s.frames
	s.mu.Unlock()
	select {
	case f := <-frames:
		return f, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// Fire injects one hardware trigger edge, as if Line0 pulsed.  An edge
// is held until the source consumes it; further edges while one is
// pending are discarded.
func (s *Sim) Fire() {
	select {
	case s.trigFire <- struct{}{}:
	default:
	}
}

// Stats returns the acquisition statistics for this device.
func (s *Sim) Stats() *Stats { return s.stats }

// RegisterImageHandler subscribes h to every delivered frame.
func (s *Sim) RegisterImageHandler(h ImageHandler) int { return s.imgReg.register(h) }

// UnregisterImageHandler removes a previously registered handler.
func (s *Sim) UnregisterImageHandler(token int) { s.imgReg.unregister(token) }

// RegisterDeviceHandler subscribes h to device events.
func (s *Sim) RegisterDeviceHandler(h DeviceHandler) int { return s.devReg.register(h) }

// UnregisterDeviceHandler removes a previously registered handler.
func (s *Sim) UnregisterDeviceHandler(token int) { s.devReg.unregister(token) }

// Close stops acquisition if running and releases the device.
func (s *Sim) Close() error {
	s.mu.Lock()
	acquiring := s.acquiring
	initialized := s.initialized
	s.mu.Unlock()
	if acquiring {
		if err := s.EndAcquisition(); err != nil {
			return err
		}
	}
	if initialized {
		return s.Deinit()
	}
	return nil
}

// SimProvider enumerates a fixed set of simulated cameras.
type SimProvider struct {
	Configs []SimConfig
}

// TLType returns "Sim".
func (p SimProvider) TLType() string { return "Sim" }

// Enumerate returns one entry per configured camera.
func (p SimProvider) Enumerate() ([]Entry, error) {
	out := make([]Entry, len(p.Configs))
	for i := range p.Configs {
		cfg := p.Configs[i].withDefaults()
		out[i] = Entry{
			Info: Info{
				Vendor:    simVendor,
				Model:     cfg.Model,
				Serial:    cfg.Serial,
				Firmware:  simFirmware,
				UserID:    cfg.UserID,
				TLType:    "Sim",
				Interface: "SimBus0",
			},
			Open: func() (Camera, error) { return NewSim(cfg), nil },
		}
	}
	return out, nil
}
