package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ReValue/internal/domain/models"
	"ReValue/internal/domain/repository"
	domsvc "ReValue/internal/domain/service"
	"ReValue/internal/services/regressor"
	applogger "ReValue/pkg/logger"
)

const (
	statusLoaded    = "Model loaded"
	statusNotLoaded = "Model not loaded"
)

// StoreOption configures FileArtifactStore.
type StoreOption func(*FileArtifactStore)

// FileArtifactStore loads the regressor, the ordered feature names and the
// optional training metrics from a model directory. After Load it is immutable.
type FileArtifactStore struct {
	dir          string
	modelFile    string
	featuresFile string
	metricsFile  string

	remoteURL      string
	remoteTimeout  time.Duration
	remoteAttempts int

	logger *applogger.Logger
	once   sync.Once

	// set once inside Load
	ready       bool
	schema      *models.FeatureSchema
	model       domsvc.Regressor
	metrics     map[string]float64
	fingerprint string
	loadedAt    time.Time
	loadErr     error
}

// NewFileArtifactStore creates an unloaded store rooted at dir.
func NewFileArtifactStore(dir string, logger *applogger.Logger, opts ...StoreOption) *FileArtifactStore {
	s := &FileArtifactStore{
		dir:          dir,
		modelFile:    "price_model.json",
		featuresFile: "feature_names.json",
		metricsFile:  "model_metrics.json",
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applogger.NewNop()
	}
	return s
}

// WithFileNames overrides the artifact file names. Empty values keep the default.
func WithFileNames(model, features, metrics string) StoreOption {
	return func(s *FileArtifactStore) {
		if model != "" {
			s.modelFile = model
		}
		if features != "" {
			s.featuresFile = features
		}
		if metrics != "" {
			s.metricsFile = metrics
		}
	}
}

// WithRemoteModel makes the store serve a remote regressor instead of the
// local model file. The feature list is still read from disk.
func WithRemoteModel(url string, timeout time.Duration, attempts int) StoreOption {
	return func(s *FileArtifactStore) {
		s.remoteURL = url
		s.remoteTimeout = timeout
		s.remoteAttempts = attempts
	}
}

// Load reads the artifacts. It runs at most once; failures leave the store
// not ready and are reported through LoadError.
func (s *FileArtifactStore) Load(ctx context.Context) {
	s.once.Do(func() {
		start := time.Now()
		if err := s.load(ctx); err != nil {
			s.loadErr = err
			s.logger.Error("model artifacts not loaded",
				applogger.String("dir", s.dir),
				applogger.Error(err),
			)
			return
		}
		s.ready = true
		s.loadedAt = time.Now().UTC()
		s.logger.Info("model artifacts loaded",
			applogger.String("dir", s.dir),
			applogger.String("model", s.model.Name()),
			applogger.Int("features", s.schema.Len()),
			applogger.String("fingerprint", s.fingerprint),
			applogger.Duration("took_ms", time.Since(start)),
		)
	})
}

func (s *FileArtifactStore) load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	featureBytes, err := os.ReadFile(filepath.Join(s.dir, s.featuresFile))
	if err != nil {
		return fmt.Errorf("read feature names: %w", err)
	}
	var names []string
	if err := json.Unmarshal(featureBytes, &names); err != nil {
		return fmt.Errorf("decode feature names: %w", err)
	}
	schema, err := models.NewFeatureSchema(names)
	if err != nil {
		return fmt.Errorf("feature schema: %w", err)
	}

	h := sha256.New()
	var model domsvc.Regressor
	if s.remoteURL != "" {
		model = regressor.NewRemote(s.remoteURL, s.remoteTimeout, s.remoteAttempts)
		h.Write([]byte(s.remoteURL))
	} else {
		modelBytes, err := os.ReadFile(filepath.Join(s.dir, s.modelFile))
		if err != nil {
			return fmt.Errorf("read model: %w", err)
		}
		model, err = regressor.Parse(modelBytes, schema.Len())
		if err != nil {
			return fmt.Errorf("parse model: %w", err)
		}
		h.Write(modelBytes)
	}
	h.Write(featureBytes)

	s.schema = schema
	s.model = model
	s.fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	s.metrics = s.readMetrics()
	return nil
}

// readMetrics keeps the numeric entries of the metrics file. A missing or
// unreadable file yields nil.
func (s *FileArtifactStore) readMetrics() map[string]float64 {
	b, err := os.ReadFile(filepath.Join(s.dir, s.metricsFile))
	if err != nil {
		s.logger.Debug("model metrics unavailable", applogger.Error(err))
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		s.logger.Warn("model metrics unreadable", applogger.Error(err))
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *FileArtifactStore) Ready() bool { return s.ready }

func (s *FileArtifactStore) Schema() *models.FeatureSchema {
	if !s.ready {
		return nil
	}
	return s.schema
}

func (s *FileArtifactStore) Regressor() domsvc.Regressor {
	if !s.ready {
		return nil
	}
	return s.model
}

// LoadError returns the reason Load failed, or nil.
func (s *FileArtifactStore) LoadError() error { return s.loadErr }

// Fingerprint identifies the loaded artifacts; empty when not ready.
func (s *FileArtifactStore) Fingerprint() string { return s.fingerprint }

func (s *FileArtifactStore) Describe() models.ModelMetadata {
	if !s.ready {
		return models.ModelMetadata{Status: statusNotLoaded}
	}
	loadedAt := s.loadedAt
	md := models.ModelMetadata{
		Status:       statusLoaded,
		Ready:        true,
		ModelType:    s.model.Name(),
		FeatureCount: s.schema.Len(),
		Fingerprint:  s.fingerprint,
		LoadedAt:     &loadedAt,
	}
	if s.metrics != nil {
		md.Metrics = make(map[string]float64, len(s.metrics))
		for k, v := range s.metrics {
			md.Metrics[k] = v
		}
	}
	return md
}

var _ repository.ArtifactStore = (*FileArtifactStore)(nil)
