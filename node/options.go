package node

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"ergo.services/actor/gen"
)

// Options defines the node options.
type Options struct {
	// Name of the node. Default is "node-<uuid>".
	Name gen.Atom
	// LogLevel of the node. Default is gen.DefaultLogLevel.
	LogLevel gen.LogLevel
	// Logger is the sink for the node and process logs. If nil, a production
	// zap logger with LogLevel is created.
	Logger *zap.Logger
	// Clock is used for receive and call timeouts. Tests may set clock.NewMock().
	Clock clock.Clock
	// DefaultCallTimeout bounds Call made without an explicit timeout.
	// Default is gen.DefaultRequestTimeout.
	DefaultCallTimeout time.Duration
}

type fileOptions struct {
	Name        string       `toml:"name"`
	LogLevel    gen.LogLevel `toml:"log-level"`
	CallTimeout string       `toml:"call-timeout"`
}

// LoadOptions reads the node options from the TOML file. Only the
// serializable options (name, log-level, call-timeout) can be set this way.
func LoadOptions(path string) (Options, error) {
	var options Options
	var fo fileOptions

	meta, err := toml.DecodeFile(path, &fo)
	if err != nil {
		return options, errors.Annotatef(err, "can not decode %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return options, errors.Annotatef(gen.ErrIncorrect, "unknown option %q in %s", undecoded[0].String(), path)
	}

	options.Name = gen.Atom(fo.Name)
	options.LogLevel = fo.LogLevel
	if fo.CallTimeout != "" {
		timeout, err := time.ParseDuration(fo.CallTimeout)
		if err != nil {
			return options, errors.Annotatef(err, "incorrect call-timeout in %s", path)
		}
		if timeout < 0 {
			return options, errors.Annotatef(gen.ErrIncorrect, "negative call-timeout in %s", path)
		}
		options.DefaultCallTimeout = timeout
	}
	return options, nil
}

func (o Options) withDefaults() (Options, error) {
	if o.Name == "" {
		o.Name = gen.Atom("node-" + uuid.New().String())
	}
	if o.LogLevel == gen.LogLevelDefault {
		o.LogLevel = gen.DefaultLogLevel
	}
	if o.DefaultCallTimeout == 0 {
		o.DefaultCallTimeout = gen.DefaultRequestTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel(o.LogLevel))
		logger, err := config.Build()
		if err != nil {
			return o, errors.Trace(err)
		}
		o.Logger = logger
	}
	return o, nil
}
