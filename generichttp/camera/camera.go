/*Package camera exposes a camera.Camera over HTTP.

The wrapper drives the device through its node map, so any camera with the
standard feature names (ExposureTime, Gain, AcquisitionMode, ...) gets the
full route set without camera-specific glue.  Route inventory:

	GET  /image            capture one frame; ?fmt=jpg|png|fits, ?exposureTime=50ms
	GET  /burst            capture a fixed-count sequence as a FITS cube; ?n=, ?fps=
	GET  /info             device identity
	GET  /nodes            the feature tree with values
	GET  /feature          feature name to type map
	GET  /feature/{feature}  read one feature
	POST /feature/{feature}  write one feature, or execute a command feature
	GET  /exposure-time    exposure in seconds
	POST /exposure-time    set exposure, JSON {"f64": seconds} or ?exposureTime=50ms
	POST /acquisition/start  arm continuous streaming
	POST /acquisition/stop   disarm
	GET  /frame-stats      delivery counters and frame rate
	GET  /chunk-mode       whether per-frame metadata is appended
	POST /chunk-mode       toggle it
	GET  /defects          the bad pixel list
	POST /defects          mark a pixel bad, JSON {"x": 10, "y": 20}
	DELETE /defects        unmark ?x=&y=, or clear the list entirely
	POST /defects/apply    toggle correction of outgoing images, JSON {"bool": true}
*/
package camera

import (
	"encoding/json"
	"fmt"
	"go/types"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/go-chi/chi"

	cam "github.com/candelalabs/gencam/camera"
	"github.com/candelalabs/gencam/generichttp"
	"github.com/candelalabs/gencam/genicam"
	"github.com/candelalabs/gencam/imgrec"
	"github.com/candelalabs/gencam/util"
)

// frameMargin pads the exposure time to produce a NextFrame timeout.
const frameMargin = 5 * time.Second

// FrameStatser is implemented by cameras that count deliveries and drops.
type FrameStatser interface {
	Stats() *cam.Stats
}

// HTTPCamera wraps a camera.Camera in an HTTP route table.
type HTTPCamera struct {
	// Cam is the wrapped device
	Cam cam.Camera

	// Rec, when enabled, tees FITS images written over HTTP to disk
	Rec *imgrec.Recorder

	// Defects is the device's bad pixel list
	Defects *cam.DefectList

	routeTable generichttp.RouteTable

	mu        sync.Mutex
	streaming bool
	correct   bool
}

// NewHTTPCamera wraps c.  rec may be nil.
func NewHTTPCamera(c cam.Camera, rec *imgrec.Recorder) *HTTPCamera {
	h := &HTTPCamera{
		Cam:     c,
		Rec:     rec,
		Defects: &cam.DefectList{Serial: c.Info().Serial},
	}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/image"}:   h.GetImage,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/burst"}:   h.Burst,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/info"}:    h.GetInfo,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/nodes"}:   h.GetNodes,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/feature"}: h.GetFeatures,

		generichttp.MethodPath{Method: http.MethodGet, Path: "/feature/{feature}"}:  h.GetFeature,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/feature/{feature}"}: h.SetFeature,

		generichttp.MethodPath{Method: http.MethodGet, Path: "/exposure-time"}:  h.GetExposureTime,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/exposure-time"}: h.SetExposureTime,

		generichttp.MethodPath{Method: http.MethodPost, Path: "/acquisition/start"}: h.StartAcquisition,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/acquisition/stop"}:  h.StopAcquisition,

		generichttp.MethodPath{Method: http.MethodGet, Path: "/frame-stats"}: h.GetFrameStats,

		generichttp.MethodPath{Method: http.MethodGet, Path: "/chunk-mode"}:  generichttp.GetBool(h.getChunkMode),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/chunk-mode"}: generichttp.SetBool(h.setChunkMode),

		generichttp.MethodPath{Method: http.MethodGet, Path: "/defects"}:        h.GetDefects,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/defects"}:       h.AddDefect,
		generichttp.MethodPath{Method: http.MethodDelete, Path: "/defects"}:     h.RemoveDefects,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/defects/apply"}: h.ApplyDefects,
	}
	h.routeTable = rt
	return h
}

// RT satisfies generichttp.HTTPer.
func (h *HTTPCamera) RT() generichttp.RouteTable {
	return h.routeTable
}

func (h *HTTPCamera) getChunkMode() (bool, error) {
	return h.Cam.NodeMap().GetBool("ChunkModeActive")
}

func (h *HTTPCamera) setChunkMode(b bool) error {
	return h.Cam.NodeMap().SetBool("ChunkModeActive", b)
}

// frameTimeout is the exposure time plus a safety margin, or the bare
// margin when the exposure node cannot be read.
func (h *HTTPCamera) frameTimeout() time.Duration {
	us, err := h.Cam.NodeMap().GetFloat("ExposureTime")
	if err != nil {
		return frameMargin
	}
	return time.Duration(us)*time.Microsecond + frameMargin
}

// grabOne captures a single frame, arming and disarming acquisition if
// the camera is not already streaming.  The returned frame is a copy
// and owned by the caller.
func (h *HTTPCamera) grabOne() (*cam.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.streaming {
		if err := h.Cam.BeginAcquisition(); err != nil {
			return nil, err
		}
		defer h.Cam.EndAcquisition()
	}
	f, err := h.Cam.NextFrame(h.frameTimeout())
	if err != nil {
		return nil, err
	}
	out := f.Copy()
	f.Release()
	return out, nil
}

// maybeCorrect applies the defect list to f when correction is toggled
// on.  Packed frames are widened to Mono16 first; the possibly new
// frame is returned.
func (h *HTTPCamera) maybeCorrect(f *cam.Frame) (*cam.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.correct || len(h.Defects.Defects) == 0 {
		return f, nil
	}
	if f.Format == cam.Mono12Packed {
		conv, err := f.ConvertTo(cam.Mono16)
		if err != nil {
			return nil, err
		}
		f = conv
	}
	if err := h.Defects.Correct(f); err != nil {
		return nil, err
	}
	return f, nil
}

// GetImage captures one frame and writes it in the requested format.
// ?exposureTime sets the exposure first; bare numbers are seconds.
// ?fmt is jpg, png, or fits, default jpg.
func (h *HTTPCamera) GetImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if texp := q.Get("exposureTime"); texp != "" {
		if util.AllElementsNumbers(texp) {
			texp += "s"
		}
		d, err := time.ParseDuration(texp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.setExposure(d); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	f, err := h.grabOne()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	f, err = h.maybeCorrect(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	format := q.Get("fmt")
	if format == "" {
		format = "jpg"
	}
	switch format {
	case "jpg", "png":
		img, err := f.Image()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if format == "jpg" {
			w.Header().Set("Content-Type", "image/jpeg")
			err = jpeg.Encode(w, img, nil)
		} else {
			w.Header().Set("Content-Type", "image/png")
			err = png.Encode(w, img)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	case "fits":
		var w2 io.Writer = w
		if h.Rec != nil && h.Rec.Enabled && h.Rec.Root != "" {
			w2 = io.MultiWriter(w, h.Rec)
			defer h.Rec.Incr()
			if f.Chunk != nil {
				defer h.Rec.WriteSidecar(f.Chunk)
			}
		}
		hdr := w.Header()
		hdr.Set("Content-Type", "image/fits")
		hdr.Set("Content-Disposition", "attachment; filename=image.fits")
		cards := headerCards(h.Cam.Info(), f)
		if err := WriteFits(w2, cards, []*cam.Frame{f}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, fmt.Sprintf("unsupported image format %q", format), http.StatusBadRequest)
	}
}

// Burst captures ?n= frames as fast as the camera delivers them and
// writes the sequence as a FITS cube.  ?fps= caps the frame rate.
func (h *HTTPCamera) Burst(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := strconv.Atoi(q.Get("n"))
	if err != nil || n < 1 {
		http.Error(w, "n must be a positive integer", http.StatusBadRequest)
		return
	}
	nm := h.Cam.NodeMap()
	if fps := q.Get("fps"); fps != "" {
		rate, err := strconv.ParseFloat(fps, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := nm.SetFloat("AcquisitionFrameRate", rate); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streaming {
		http.Error(w, "acquisition already running", http.StatusConflict)
		return
	}
	if err := nm.SetEnum("AcquisitionMode", "MultiFrame"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := nm.SetInt("AcquisitionFrameCount", int64(n)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.Cam.BeginAcquisition(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer h.Cam.EndAcquisition()
	timeout := h.frameTimeout()
	frames := make([]*cam.Frame, 0, n)
	for i := 0; i < n; i++ {
		f, err := h.Cam.NextFrame(timeout)
		if err != nil {
			http.Error(w, fmt.Sprintf("frame %d of %d: %s", i+1, n, err), http.StatusInternalServerError)
			return
		}
		frames = append(frames, f.Copy())
		f.Release()
	}
	cards := headerCards(h.Cam.Info(), frames[0])
	cards = append(cards, fitsio.Card{Name: "NFRAMES", Value: n, Comment: "frames in cube"})
	hdr := w.Header()
	hdr.Set("Content-Type", "image/fits")
	hdr.Set("Content-Disposition", "attachment; filename=burst.fits")
	if err := WriteFits(w, cards, frames); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetInfo writes the device identity as JSON.
func (h *HTTPCamera) GetInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(h.Cam.Info())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *HTTPCamera) setExposure(d time.Duration) error {
	us := float64(d) / float64(time.Microsecond)
	return h.Cam.NodeMap().SetFloat("ExposureTime", us)
}

// GetExposureTime reads the exposure in seconds.
func (h *HTTPCamera) GetExposureTime(w http.ResponseWriter, r *http.Request) {
	us, err := h.Cam.NodeMap().GetFloat("ExposureTime")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	hp := generichttp.HumanPayload{T: types.Float64, Float: us / 1e6}
	hp.EncodeAndRespond(w, r)
}

// SetExposureTime sets the exposure, either from the exposureTime query
// parameter as a duration or from a JSON body in seconds.
func (h *HTTPCamera) SetExposureTime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	texp := q.Get("exposureTime")
	var d time.Duration
	var err error
	if texp != "" {
		if util.AllElementsNumbers(texp) {
			texp += "s"
		}
		d, err = time.ParseDuration(texp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		f := generichttp.FloatT{}
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		d = time.Duration(f.F64 * float64(time.Second))
	}
	if err := h.setExposure(d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// StartAcquisition arms continuous streaming.
func (h *HTTPCamera) StartAcquisition(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streaming {
		http.Error(w, "acquisition already running", http.StatusConflict)
		return
	}
	if err := h.Cam.BeginAcquisition(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.streaming = true
	w.WriteHeader(http.StatusOK)
}

// StopAcquisition disarms streaming.
func (h *HTTPCamera) StopAcquisition(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.streaming {
		http.Error(w, "acquisition not running", http.StatusConflict)
		return
	}
	if err := h.Cam.EndAcquisition(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.streaming = false
	w.WriteHeader(http.StatusOK)
}

// GetFrameStats writes the delivery counters as JSON, or 404 when the
// camera does not keep them.
func (h *HTTPCamera) GetFrameStats(w http.ResponseWriter, r *http.Request) {
	statser, ok := interface{}(h.Cam).(FrameStatser)
	if !ok {
		http.Error(w, "camera does not keep frame statistics", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(statser.Stats().Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// nodeView is one row of the GET /nodes response.
type nodeView struct {
	Depth  int         `json:"depth"`
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Access string      `json:"access"`
	Value  interface{} `json:"value,omitempty"`
	Unit   string      `json:"unit,omitempty"`
}

// GetNodes writes the feature tree as a flat JSON array, depth first,
// with current values for readable nodes.
func (h *HTTPCamera) GetNodes(w http.ResponseWriter, r *http.Request) {
	var out []nodeView
	h.Cam.NodeMap().Walk(func(depth int, n genicam.Node) {
		v := nodeView{
			Depth:  depth,
			Name:   n.Name(),
			Type:   n.Type().String(),
			Access: n.Access().String(),
		}
		if n.Access().Readable() {
			switch nn := n.(type) {
			case *genicam.Integer:
				if val, err := nn.Value(); err == nil {
					v.Value = val
				}
			case *genicam.Float:
				if val, err := nn.Value(); err == nil {
					v.Value = val
				}
				v.Unit = nn.Unit()
			case *genicam.Boolean:
				if val, err := nn.Value(); err == nil {
					v.Value = val
				}
			case *genicam.String:
				if val, err := nn.Value(); err == nil {
					v.Value = val
				}
			case *genicam.Enumeration:
				if val, err := nn.Value(); err == nil {
					v.Value = val
				}
			}
		}
		out = append(out, v)
	})
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetFeatures writes the feature name to type map as JSON.
func (h *HTTPCamera) GetFeatures(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(h.Cam.NodeMap().Types())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetFeature reads one feature by name.
func (h *HTTPCamera) GetFeature(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	n, err := h.Cam.NodeMap().Get(feature)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hp := generichttp.HumanPayload{}
	switch nn := n.(type) {
	case *genicam.Integer:
		v, err := nn.Value()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hp.T = types.Int
		hp.Int = int(v)
	case *genicam.Float:
		v, err := nn.Value()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hp.T = types.Float64
		hp.Float = v
	case *genicam.Boolean:
		v, err := nn.Value()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hp.T = types.Bool
		hp.Bool = v
	case *genicam.String:
		v, err := nn.Value()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hp.T = types.String
		hp.String = v
	case *genicam.Enumeration:
		v, err := nn.Value()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hp.T = types.String
		hp.String = v
	case *genicam.Command:
		http.Error(w, "cannot get a command feature", http.StatusBadRequest)
		return
	default:
		http.Error(w, fmt.Sprintf("feature %s is a %s, not a value", feature, n.Type()), http.StatusBadRequest)
		return
	}
	hp.EncodeAndRespond(w, r)
}

// SetFeature writes one feature by name.  The body is the envelope for
// the feature's type; enums take {"str": "EntryName"}.  Posting to a
// command feature executes it with no body.
func (h *HTTPCamera) SetFeature(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	nm := h.Cam.NodeMap()
	n, err := nm.Get(feature)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch n.(type) {
	case *genicam.Integer:
		i := generichttp.IntT{}
		if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = nm.SetInt(feature, int64(i.Int))
	case *genicam.Float:
		f := generichttp.FloatT{}
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = nm.SetFloat(feature, f.F64)
	case *genicam.Boolean:
		b := generichttp.BoolT{}
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = nm.SetBool(feature, b.Bool)
	case *genicam.String:
		s := generichttp.StrT{}
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = nm.SetString(feature, s.Str)
	case *genicam.Enumeration:
		s := generichttp.StrT{}
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = nm.SetEnum(feature, s.Str)
	case *genicam.Command:
		err = nm.Execute(feature)
	default:
		http.Error(w, fmt.Sprintf("feature %s is a %s, not settable", feature, n.Type()), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetDefects writes the bad pixel list as JSON.
func (h *HTTPCamera) GetDefects(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(h.Defects)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// AddDefect marks a pixel bad.  The response bool is false when the
// pixel was already marked.
func (h *HTTPCamera) AddDefect(w http.ResponseWriter, r *http.Request) {
	d := cam.Defect{}
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	h.mu.Lock()
	added := h.Defects.Add(d.X, d.Y)
	h.mu.Unlock()
	hp := generichttp.HumanPayload{T: types.Bool, Bool: added}
	hp.EncodeAndRespond(w, r)
}

// RemoveDefects unmarks the pixel at ?x=&y=, or clears the whole list
// when the coordinates are absent.  The response bool is false when
// nothing was removed.
func (h *HTTPCamera) RemoveDefects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	xs, ys := q.Get("x"), q.Get("y")
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	if xs == "" && ys == "" {
		removed = len(h.Defects.Defects) > 0
		h.Defects.Defects = nil
	} else {
		x, err := strconv.Atoi(xs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		y, err := strconv.Atoi(ys)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		removed = h.Defects.Remove(x, y)
	}
	hp := generichttp.HumanPayload{T: types.Bool, Bool: removed}
	hp.EncodeAndRespond(w, r)
}

// ApplyDefects toggles correction of outgoing images.
func (h *HTTPCamera) ApplyDefects(w http.ResponseWriter, r *http.Request) {
	b := generichttp.BoolT{}
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	h.mu.Lock()
	h.correct = b.Bool
	h.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// headerCards builds the FITS header for a frame from the device
// identity and, when present, the frame's chunk metadata.
func headerCards(info cam.Info, f *cam.Frame) []fitsio.Card {
	cards := []fitsio.Card{
		{Name: "CAMERA", Value: info.Model, Comment: "camera model"},
		{Name: "SERIAL", Value: info.Serial, Comment: "camera serial number"},
		{Name: "FRAMEID", Value: int(f.ID), Comment: "device frame counter"},
		{Name: "PIXFMT", Value: f.Format.String(), Comment: "pixel format"},
		{Name: "COMPLETE", Value: f.Complete(), Comment: "payload fully transferred"},
	}
	if f.Chunk != nil {
		cards = append(cards,
			fitsio.Card{Name: "EXPTIME", Value: f.Chunk.ExposureTime / 1e6, Comment: "exposure time, seconds"},
			fitsio.Card{Name: "GAIN", Value: f.Chunk.Gain, Comment: "amplifier gain, dB"},
		)
	}
	return cards
}
