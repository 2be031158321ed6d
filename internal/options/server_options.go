package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ServerRunOptions binds the gateway's HTTP and gRPC health listeners.
type ServerRunOptions struct {
	BindAddress  string        `json:"bind-address" mapstructure:"bind-address"`
	BindPort     int           `json:"bind-port" mapstructure:"bind-port"`
	HealthPort   int           `json:"health-port" mapstructure:"health-port"`
	ReadTimeout  time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
	EnablePprof  bool          `json:"enable-pprof" mapstructure:"enable-pprof"`
}

// NewServerRunOptions returns defaults matching the teacher's generic
// server bootstrap.
func NewServerRunOptions() *ServerRunOptions {
	return &ServerRunOptions{
		BindAddress:  "0.0.0.0",
		BindPort:     8080,
		HealthPort:   8081,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func (o *ServerRunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BindAddress, "server.bind-address", o.BindAddress, "HTTP gateway bind address.")
	fs.IntVar(&o.BindPort, "server.bind-port", o.BindPort, "HTTP gateway bind port.")
	fs.IntVar(&o.HealthPort, "server.health-port", o.HealthPort, "gRPC health/reflection server port.")
	fs.DurationVar(&o.ReadTimeout, "server.read-timeout", o.ReadTimeout, "HTTP read timeout.")
	fs.DurationVar(&o.WriteTimeout, "server.write-timeout", o.WriteTimeout, "HTTP write timeout.")
	fs.BoolVar(&o.EnablePprof, "server.enable-pprof", o.EnablePprof, "Mount /debug/pprof/* routes.")
}

func (o *ServerRunOptions) Validate() []error {
	var errs []error
	if o.BindPort <= 0 || o.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("server.bind-port %d out of range", o.BindPort))
	}
	if o.HealthPort <= 0 || o.HealthPort > 65535 {
		errs = append(errs, fmt.Errorf("server.health-port %d out of range", o.HealthPort))
	}
	return errs
}
