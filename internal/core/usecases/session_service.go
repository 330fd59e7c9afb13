package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/mapcore"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
	"github.com/samirrijal/voltfinder/internal/mapcore/provider"
	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
	"github.com/samirrijal/voltfinder/internal/pkg/telemetry"
)

var (
	// ErrSessionNotFound is returned for unknown or deleted session ids.
	ErrSessionNotFound = errors.New("map session not found")
	// ErrNoSurface is returned when a session's engine cannot simulate input.
	ErrNoSurface = errors.New("session has no input surface")
	// ErrInvalidStatus is returned for unknown marker statuses.
	ErrInvalidStatus = errors.New("invalid marker status")
	// ErrThemeUnsupported is returned by SetTheme on backends without themes.
	ErrThemeUnsupported = errors.New("provider has no switchable theme")
)

const (
	publishTimeout   = 2 * time.Second
	maxSessionLimit  = 500
	defaultWidth     = 1024
	defaultHeight    = 768
	defaultStationsN = 200
)

// SessionOptions selects the backend and viewport of a new session.
// Empty fields take the service defaults.
type SessionOptions struct {
	Provider string `json:"provider,omitempty"`
	Theme    string `json:"theme,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type trackedMarker struct {
	pos  domain.LatLng
	opts domain.MarkerOptions
}

// Session is one mounted map and the state observed from its events.
type Session struct {
	ID        string
	Kind      provider.Kind
	CreatedAt time.Time

	holder    *provider.Holder
	container *ports.Container
	onPress   *events.Handler
	onRegion  *events.Handler

	mu      sync.Mutex
	region  *domain.RegionChangedEvent
	markers map[string]trackedMarker
	subs    map[int]func(domain.MapEvent)
	nextSub int
}

// Holder returns the holder of the session's active adapter.
func (s *Session) Holder() *provider.Holder { return s.holder }

func (s *Session) adapter() (ports.MapAdapter, error) {
	a := s.holder.Adapter()
	if a == nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, ErrSessionNotFound)
	}
	return a, nil
}

// observe records ev and returns the subscribers to notify.
func (s *Session) observe(ev domain.MapEvent) []func(domain.MapEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := ev.Payload.(domain.RegionChangedEvent); ok {
		s.region = &r
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(domain.MapEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

// MapSessionService owns the map sessions served by mapd. Each session is
// an adapter mounted on a headless engine whose events are recorded,
// published to the broker and relayed to in-process subscribers.
type MapSessionService struct {
	engines   provider.Engines
	surfaces  map[provider.Kind]ports.SurfaceSource
	stations  ports.StationRepository
	publisher ports.EventPublisher
	defaults  SessionOptions
	opts      []mapcore.Option
	clk       clock.Clock
	log       *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMapSessionService creates a MapSessionService. stations and publisher
// may be nil.
func NewMapSessionService(
	engines provider.Engines,
	surfaces map[provider.Kind]ports.SurfaceSource,
	stations ports.StationRepository,
	publisher ports.EventPublisher,
	defaults SessionOptions,
	opts ...mapcore.Option,
) *MapSessionService {
	o := mapcore.Apply(opts)
	if defaults.Width <= 0 {
		defaults.Width = defaultWidth
	}
	if defaults.Height <= 0 {
		defaults.Height = defaultHeight
	}
	return &MapSessionService{
		engines:   engines,
		surfaces:  surfaces,
		stations:  stations,
		publisher: publisher,
		defaults:  defaults,
		opts:      opts,
		clk:       o.Clock,
		log:       o.Logger.With("component", "sessions"),
		sessions:  make(map[string]*Session),
	}
}

// Create mounts a new session and returns its snapshot.
func (s *MapSessionService) Create(ctx context.Context, o SessionOptions) (*domain.RegionSnapshot, error) {
	if o.Provider == "" {
		o.Provider = s.defaults.Provider
	}
	if o.Theme == "" {
		o.Theme = s.defaults.Theme
	}
	if o.Width <= 0 {
		o.Width = s.defaults.Width
	}
	if o.Height <= 0 {
		o.Height = s.defaults.Height
	}
	kind := provider.ParseKind(o.Provider)

	ctx, span := telemetry.Tracer().Start(ctx, "session.create", trace.WithAttributes(
		attribute.String("map.provider", string(kind)),
	))
	defer span.End()

	e := s.engines
	e.Theme = o.Theme
	adapter, err := provider.New(kind, e, s.opts...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: s.clk.Now(),
		holder:    provider.NewHolder(),
		markers:   make(map[string]trackedMarker),
		subs:      make(map[int]func(domain.MapEvent)),
	}
	sess.container = &ports.Container{ID: sess.ID, Width: o.Width, Height: o.Height}
	span.SetAttributes(attribute.String("session.id", sess.ID))

	if err := sess.holder.Activate(ctx, adapter, sess.container); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess.onPress = events.NewHandler(s.forward(sess))
	sess.onRegion = events.NewHandler(s.forward(sess))
	adapter.On(domain.EventPress, sess.onPress)
	adapter.On(domain.EventRegionChanged, sess.onRegion)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()

	s.log.Info("session created", "session", sess.ID, "provider", kind)
	return s.snapshot(sess), nil
}

// Delete unmounts and forgets a session.
func (s *MapSessionService) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.release(sess)
	s.log.Info("session deleted", "session", id)
	return nil
}

// Close deletes every session.
func (s *MapSessionService) Close() {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		s.release(sess)
	}
}

func (s *MapSessionService) release(sess *Session) {
	sess.holder.Release()
	if src, ok := s.surfaces[sess.Kind]; ok {
		src.Release(sess.ID)
	}
	sess.mu.Lock()
	sess.subs = make(map[int]func(domain.MapEvent))
	sess.mu.Unlock()
	metrics.ActiveSessions.Dec()
}

// Get returns the session with id.
func (s *MapSessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Snapshot returns the current region and overlay counts of a session.
func (s *MapSessionService) Snapshot(id string) (*domain.RegionSnapshot, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// List returns the snapshots of every session ordered by creation time.
func (s *MapSessionService) List() []domain.RegionSnapshot {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	out := make([]domain.RegionSnapshot, 0, len(all))
	for _, sess := range all {
		out = append(out, *s.snapshot(sess))
	}
	return out
}

func (s *MapSessionService) snapshot(sess *Session) *domain.RegionSnapshot {
	snap := &domain.RegionSnapshot{SessionID: sess.ID, Provider: string(sess.Kind)}
	a := sess.holder.Adapter()
	if a != nil {
		snap.Mounted = true
		if c, ok := a.(ports.OverlayCounter); ok {
			snap.Markers, snap.Polylines, snap.Polygons = c.OverlayCounts()
		}
	}
	sess.mu.Lock()
	if sess.region != nil {
		r := *sess.region
		snap.Region = &r
	}
	sess.mu.Unlock()
	return snap
}

// SetCamera moves a session's camera.
func (s *MapSessionService) SetCamera(id string, pos domain.LatLng, zoom float64) error {
	a, err := s.adapterOf(id)
	if err != nil {
		return err
	}
	a.SetCamera(pos, zoom)
	return nil
}

// FitBounds fits a session's camera to the rectangle nw/se.
func (s *MapSessionService) FitBounds(id string, nw, se domain.LatLng, padding float64) error {
	a, err := s.adapterOf(id)
	if err != nil {
		return err
	}
	a.FitBounds(nw, se, padding)
	return nil
}

// PutMarker adds or replaces a marker.
func (s *MapSessionService) PutMarker(id, markerID string, pos domain.LatLng, opts domain.MarkerOptions) error {
	if opts.Status != "" && !opts.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, opts.Status)
	}
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	a, err := sess.adapter()
	if err != nil {
		return err
	}

	a.AddMarker(markerID, pos, &opts)
	sess.mu.Lock()
	sess.markers[markerID] = trackedMarker{pos: pos, opts: opts}
	sess.mu.Unlock()
	return nil
}

// RemoveMarker removes a marker. Unknown ids are ignored.
func (s *MapSessionService) RemoveMarker(id, markerID string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	a, err := sess.adapter()
	if err != nil {
		return err
	}

	a.RemoveMarker(markerID)
	sess.mu.Lock()
	delete(sess.markers, markerID)
	sess.mu.Unlock()
	return nil
}

// PutPolyline adds or replaces a polyline.
func (s *MapSessionService) PutPolyline(id, shapeID string, pts []domain.LatLng, opts *domain.PolylineOptions) error {
	a, err := s.adapterOf(id)
	if err != nil {
		return err
	}
	a.AddPolyline(shapeID, pts, opts)
	return nil
}

// PutPolygon adds or replaces a polygon.
func (s *MapSessionService) PutPolygon(id, shapeID string, pts []domain.LatLng, opts *domain.PolygonOptions) error {
	a, err := s.adapterOf(id)
	if err != nil {
		return err
	}
	a.AddPolygon(shapeID, pts, opts)
	return nil
}

// LoadStations places a marker for every station inside b, coloured by
// its status, and returns the stations placed.
func (s *MapSessionService) LoadStations(ctx context.Context, id string, b domain.Bounds, limit int) ([]domain.Station, error) {
	if s.stations == nil {
		return nil, errors.New("station source not configured")
	}
	if limit <= 0 || limit > maxSessionLimit {
		limit = defaultStationsN
	}
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	a, err := sess.adapter()
	if err != nil {
		return nil, err
	}

	stations, err := s.stations.FindInBounds(ctx, b.Normalize(), limit)
	if err != nil {
		return nil, fmt.Errorf("find stations: %w", err)
	}

	placed := make(map[string]trackedMarker, len(stations))
	for _, st := range stations {
		opts := domain.MarkerOptions{Status: st.Status}
		a.AddMarker(st.ID, st.Location, &opts)
		placed[st.ID] = trackedMarker{pos: st.Location, opts: opts}
	}

	sess.mu.Lock()
	for k, v := range placed {
		sess.markers[k] = v
	}
	sess.mu.Unlock()
	return stations, nil
}

// ApplyStationStatus records a status change and recolours the station's
// marker in every session showing it. It returns the number of sessions
// updated.
func (s *MapSessionService) ApplyStationStatus(ctx context.Context, change *domain.StationStatusChange) (int, error) {
	if !change.Status.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, change.Status)
	}
	if s.stations != nil {
		if err := s.stations.UpdateStatus(ctx, change.StationID, change.Status); err != nil && !errors.Is(err, ports.ErrNotFound) {
			return 0, fmt.Errorf("update station %s: %w", change.StationID, err)
		}
	}

	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	updated := 0
	for _, sess := range all {
		sess.mu.Lock()
		m, ok := sess.markers[change.StationID]
		if ok {
			m.opts.Status = change.Status
			sess.markers[change.StationID] = m
		}
		sess.mu.Unlock()
		if !ok {
			continue
		}
		a := sess.holder.Adapter()
		if a == nil {
			continue
		}
		a.AddMarker(change.StationID, m.pos, &m.opts)
		updated++
	}
	return updated, nil
}

// Press simulates a tap on a session's map.
func (s *MapSessionService) Press(id string, p domain.LatLng) error {
	surface, err := s.surfaceOf(id)
	if err != nil {
		return err
	}
	surface.Press(p)
	return nil
}

// Pan simulates a user gesture moving a session's camera.
func (s *MapSessionService) Pan(id string, center domain.LatLng, zoom float64) error {
	surface, err := s.surfaceOf(id)
	if err != nil {
		return err
	}
	surface.Pan(center, zoom)
	return nil
}

// Subscribe delivers every event of a session to fn until the returned
// cancel func is called or the session is deleted.
func (s *MapSessionService) Subscribe(id string, fn func(domain.MapEvent)) (func(), error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	key := sess.nextSub
	sess.nextSub++
	sess.subs[key] = fn
	sess.mu.Unlock()

	return func() {
		sess.mu.Lock()
		delete(sess.subs, key)
		sess.mu.Unlock()
	}, nil
}

// SetTheme switches the theme of the adapter held by the holder on ctx.
func (s *MapSessionService) SetTheme(ctx context.Context, theme string) error {
	h := provider.FromContext(ctx)
	if h == nil || h.Adapter() == nil {
		return ErrSessionNotFound
	}
	t, ok := h.Adapter().(ports.Themer)
	if !ok {
		return ErrThemeUnsupported
	}
	t.SetTheme(theme)
	return nil
}

func (s *MapSessionService) adapterOf(id string) (ports.MapAdapter, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.adapter()
}

func (s *MapSessionService) surfaceOf(id string) (ports.Surface, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	src, ok := s.surfaces[sess.Kind]
	if !ok {
		return nil, ErrNoSurface
	}
	surface, ok := src.Surface(sess.ID)
	if !ok {
		return nil, ErrNoSurface
	}
	return surface, nil
}

// forward returns the adapter handler of sess.
func (s *MapSessionService) forward(sess *Session) func(domain.Event) {
	return func(ev domain.Event) {
		me := domain.MapEvent{
			SessionID: sess.ID,
			Type:      ev.Name(),
			Payload:   ev,
			Time:      s.clk.Now(),
		}
		for _, fn := range sess.observe(me) {
			fn(me)
		}

		if s.publisher == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishMapEvent(ctx, &me); err != nil {
			s.log.Warn("publish map event failed", "session", sess.ID, "event", me.Type, "error", err)
		}
	}
}
