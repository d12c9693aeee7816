package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Verify validates the configuration and prepares the data directory.
func Verify(cfg *ServerConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fieldErrors(err)
	}
	if err := verifyServer(cfg); err != nil {
		return err
	}
	return verifyStorage(&cfg.Storage)
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s", key, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", key, fe.Tag()))
		}
	}
	return errors.New("invalid config: " + strings.Join(msgs, "; "))
}

func verifyServer(cfg *ServerConfig) error {
	if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr: %w", err)
		}
		if cfg.Metrics.Addr == cfg.Server.Addr {
			return errors.New("metrics.addr must differ from server.addr")
		}
	}
	if cfg.Node.SecretPath != "" {
		if _, err := os.Stat(cfg.Node.SecretPath); err != nil {
			return fmt.Errorf("node.secret_path: %w", err)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	return nil
}
