package membuffer

import (
	"regexp"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IdentifierPat contains the pattern for a valid schema name component
const IdentifierPat = "[\\p{L}\\p{N}_]+"

const namePat = "\\A" + IdentifierPat + "(\\." + IdentifierPat + ")*\\z"

// IdentifierRegex matches a valid schema name, dotted components are allowed
var IdentifierRegex = regexp.MustCompile(namePat)

// ErrDuplicateName is returned when registering a name twice
var ErrDuplicateName = errors.New("schema name is already registered")

// Registry maps names to schemas so layouts can refer to each other by name
//
// a Registry is safe for concurrent use
type Registry struct {
	names   []string          // registration order
	schemas map[string]Schema // a cache for schemas
	mu      sync.Mutex        // mutex to synchronize access
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]Schema),
	}
}

// Register adds s under name
func (r *Registry) Register(name string, s Schema) error {
	if !IdentifierRegex.MatchString(name) {
		return errors.Wrapf(ErrInvalidSchema, "invalid schema name %q", name)
	}

	if s == nil {
		return errors.Wrapf(ErrInvalidSchema, "schema %q is nil", name)
	}

	if o, ok := s.(Object); ok {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "schema %q", name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.schemas[name]; present {
		return errors.Wrapf(ErrDuplicateName, "%q", name)
	}

	r.schemas[name] = s
	r.names = append(r.names, name)

	if logging {
		logger.Info("registered schema",
			zap.String("module", "registry"),
			zap.String("name", name),
			zap.Uint64("fingerprint", Fingerprint(s)),
		)
	}

	return nil
}

// MustRegister is a Register that panics on failure
func (r *Registry) MustRegister(name string, s Schema) {
	if err := r.Register(name, s); err != nil {
		panic(err)
	}
}

// Lookup returns the schema registered under name
func (r *Registry) Lookup(name string) (Schema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, present := r.schemas[name]
	return s, present
}

// Has checks if a schema of the passed name is already present or not
func (r *Registry) Has(name string) bool {
	_, present := r.Lookup(name)
	return present
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.names...)
}

// Len returns the number of registered schemas
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.names)
}

// Fingerprint returns the Fingerprint of the schema registered under name
func (r *Registry) Fingerprint(name string) (uint64, error) {
	s, present := r.Lookup(name)
	if !present {
		return 0, errors.Wrapf(ErrUnknownSchemaType, "no schema named %q", name)
	}
	return Fingerprint(s), nil
}
