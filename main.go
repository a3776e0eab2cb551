package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	antlers "github.com/rcmh/antlers/antlers"
	log "github.com/sirupsen/logrus"
)

var (
	vsn = "0.1.0"
)

func parseFlags() antlers.Flags {
	flags := new(antlers.Flags)

	// commands
	listFlag := flag.Bool("list", false, "List available serialports")
	helpFlag := flag.Bool("help", false, "Show help text")
	versionFlag := flag.Bool("version", false, "Show version")

	configFlag := flag.String("config", "antlers.yaml", "Path to the YAML configuration")

	// communication flags, override the configuration file when given
	stdioFlag := flag.Bool("stdio", false, "Use stdio for upstream communication")
	remoteFlag := flag.String("remote", "", "The upstream show-control address to connect to")
	usetlsFlag := flag.Bool("tls", false, "Control use of TLS with -remote")
	reconnectFlag := flag.Bool("reconnect", true, "Automatically re-establish upstream communication on failure")

	flag.Parse()

	flags.Help = *helpFlag
	flags.List = *listFlag
	flags.Version = *versionFlag
	flags.Config = *configFlag

	flags.Stdio = *stdioFlag
	flags.Remote = *remoteFlag
	flags.TLS = *usetlsFlag
	flags.Reconnect = *reconnectFlag

	return *flags
}

// applyFlags flags explicitly set on the command line win over the file
func applyFlags(cfg *antlers.Config, flags antlers.Flags) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "reconnect":
			cfg.Upstream.Reconnect = flags.Reconnect
		}
	})

	if flags.Remote != "" {
		cfg.Upstream.Remote = flags.Remote
		cfg.Upstream.Mode = antlers.UpstreamTCP
		if flags.TLS {
			cfg.Upstream.Mode = antlers.UpstreamTLS
		}
	}

	if flags.Stdio {
		cfg.Upstream.Mode = antlers.UpstreamStdio
	}
}

func setupLogger(cfg antlers.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000000",
		})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000000",
		})
	}

	// stdout may carry the upstream protocol, never log there by default
	log.SetOutput(os.Stderr)
	if cfg.Output == "file" && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("failed to open log file %s: %v, using stderr", cfg.FilePath, err)
		}
	}
}

func pickUpstream(cfg *antlers.Config) (antlers.Remote, error) {
	switch cfg.Upstream.Mode {
	case antlers.UpstreamStdio:
		return antlers.ConnectStdio(os.Stdin, os.Stdout)
	case antlers.UpstreamTLS:
		return antlers.ConnectTLS(cfg.Upstream.Remote)
	case antlers.UpstreamSerial:
		return antlers.ConnectSerial(cfg.Upstream.Port, cfg.Upstream.BaudRate)
	}

	return antlers.ConnectTCP(cfg.Upstream.Remote)
}

// openRadio failures past opening the port only degrade the radio, they never stop the gateway
func openRadio(cfg *antlers.Config) (antlers.Radio, antlers.Indicator, error) {
	if cfg.Radio.Port == antlers.StubPort {
		log.Warnf("radio:stub, nothing goes on air")
		return antlers.NewStubRadio(), nil, nil
	}

	port, err := antlers.ConnectSerial(cfg.Radio.Port, cfg.Radio.BaudRate)
	if err != nil {
		return nil, nil, err
	}

	modem := antlers.NewModemRadio(port, cfg.Radio.WriteTimeout, cfg.Radio.Reconnect)
	if err := modem.Configure(cfg.RadioSettings(), cfg.Radio.ConfigureTimeout); err != nil {
		log.Warnf("radio:config failed, continuing with modem defaults: %v", err)
	} else {
		log.Printf("radio:config ok")
	}

	return modem, port, nil
}

func main() {
	flags := parseFlags()

	if true == flags.Help {
		flag.PrintDefaults()
		return
	} else if true == flags.List {
		if err := antlers.PrintPortList(); err != nil {
			log.Fatal(err)
		}
		return
	} else if true == flags.Version {
		fmt.Printf("%v\n", vsn)
		return
	}

	cfg, err := antlers.LoadConfig(flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, using defaults\n", err)
		cfg = antlers.DefaultConfig()
	}

	applyFlags(cfg, flags)
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration:\n%v", err)
	}

	log.Printf("antlers - version %v", vsn)
	log.Printf("starting node %d network=%d frequency=%d role=%s",
		cfg.Node.ID, cfg.Node.NetworkID, cfg.Radio.Frequency, cfg.Node.Role)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor.Enabled {
		antlers.NewMonitor().StartMetricsServer(cfg.Monitor.MetricsPort)
	}

	var sinks []antlers.StatusSink
	if cfg.Redis.Enabled {
		pub, err := antlers.NewRedisPublisher(ctx, cfg.Redis)
		if err != nil {
			log.Warnf("redis disabled: %v", err)
		} else {
			defer pub.Close()
			go pub.Run(ctx)
			sinks = append(sinks, pub)
		}
	}

	radio, indicator, err := openRadio(cfg)
	if err != nil {
		log.Fatalf("failed to open radio modem; %v", err)
	}
	defer radio.Close()

	upstream, err := pickUpstream(cfg)
	if err != nil {
		log.Fatalf("failed to connect to upstream; %v", err)
	}

	err = antlers.Loop(ctx, upstream, radio, cfg, indicator, sinks...)
	upstream.Close()

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, antlers.ErrUpstreamClosed) {
		log.Fatal(err)
	}
	log.Printf("antlers - stopped")
}
