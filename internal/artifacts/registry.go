package artifacts

import (
	"context"
	"log/slog"
	"sync"

	"signbridge/internal/logging"
)

// Kind identifies which service owns a temporary artifact.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Releaser issues the remote cleanup call for one artifact.
type Releaser interface {
	Release(ctx context.Context, kind Kind, id string) error
}

// ReleaserFunc adapts a function to the Releaser interface.
type ReleaserFunc func(ctx context.Context, kind Kind, id string) error

func (f ReleaserFunc) Release(ctx context.Context, kind Kind, id string) error {
	return f(ctx, kind, id)
}

// Registry records temp artifact ids for a single run scope and releases
// them on demand. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	releaser Releaser
	logger   *slog.Logger
	ids      map[Kind]map[string]struct{}
}

// NewRegistry constructs a registry that cleans up through the given releaser.
func NewRegistry(releaser Releaser, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		releaser: releaser,
		logger:   logging.NewComponentLogger(logger, "artifacts"),
		ids:      make(map[Kind]map[string]struct{}),
	}
}

// Register records an artifact id the moment a stage response reports one.
// Registering an id twice is a no-op.
func (r *Registry) Register(kind Kind, id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.ids[kind]
	if !ok {
		set = make(map[string]struct{})
		r.ids[kind] = set
	}
	set[id] = struct{}{}
}

// Forget removes an id from the registry without issuing a cleanup call.
// Used when the user saves an artifact to permanent storage; a forgotten id
// is exempt from every subsequent release. Reports whether the id was known.
func (r *Registry) Forget(kind Kind, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.ids[kind]
	if !ok {
		return false
	}
	if _, known := set[id]; !known {
		return false
	}
	delete(set, id)
	return true
}

// Release issues a best-effort delete for one registered artifact. Unknown
// ids are a no-op. Failures are logged, never returned.
func (r *Registry) Release(ctx context.Context, kind Kind, id string) {
	if !r.Forget(kind, id) {
		return
	}
	r.release(ctx, kind, id)
}

// ReleaseAll issues best-effort deletes for every artifact still registered
// and empties the registry. Idempotent.
func (r *Registry) ReleaseAll(ctx context.Context) {
	r.mu.Lock()
	pending := make(map[Kind][]string, len(r.ids))
	for kind, set := range r.ids {
		for id := range set {
			pending[kind] = append(pending[kind], id)
		}
		delete(r.ids, kind)
	}
	r.mu.Unlock()

	for kind, ids := range pending {
		for _, id := range ids {
			r.release(ctx, kind, id)
		}
	}
}

// Pending returns the ids still registered for a kind, for status displays
// and tests.
func (r *Registry) Pending(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.ids[kind]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (r *Registry) release(ctx context.Context, kind Kind, id string) {
	if r.releaser == nil {
		return
	}
	if err := r.releaser.Release(ctx, kind, id); err != nil {
		// Losing a temp artifact is acceptable; interrupting the user is not.
		r.logger.Warn("artifact cleanup failed",
			logging.String(logging.FieldEventType, "artifact_cleanup_failed"),
			logging.String("artifact_kind", string(kind)),
			logging.String("artifact_id", id),
			logging.Error(err),
		)
	}
}

// Router dispatches cleanup calls to the service that owns each artifact kind.
type Router struct {
	Audio interface {
		ReleaseAudio(ctx context.Context, tempAudioID string) error
	}
	Video interface {
		ReleaseVideo(ctx context.Context, tempVideoID string) error
	}
}

func (rt Router) Release(ctx context.Context, kind Kind, id string) error {
	switch kind {
	case KindAudio:
		if rt.Audio == nil {
			return nil
		}
		return rt.Audio.ReleaseAudio(ctx, id)
	case KindVideo:
		if rt.Video == nil {
			return nil
		}
		return rt.Video.ReleaseVideo(ctx, id)
	default:
		return nil
	}
}
