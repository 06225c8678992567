package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/drunlade/go-rctransfer/rctransfer"
	"github.com/rs/zerolog"
)

const versionString = "rctransfer version 0.1.0"

// Exit statuses.
const (
	exitOK     = 0
	exitFatal  = 1
	exitFailed = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	cl := newCommandLine()
	s, err := cl.parse(args, defaultSettings())
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		cl.usage(stderr)
		return exitFatal
	}
	if s.Help {
		printUsage(cl, stdout)
		return exitOK
	}
	if s.Version {
		fmt.Fprintln(stdout, versionString)
		return exitOK
	}

	// config file first, then the command line on top of it
	configPath, required := s.ConfigFile, s.ConfigFile != ""
	if !required {
		configPath = defaultConfigPath()
	}
	base, err := loadConfigFile(configPath, defaultSettings(), required)
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}
	cl = newCommandLine()
	if s, err = cl.parse(args, base); err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}
	if len(s.Files) == 0 {
		fmt.Fprintln(stderr, "rctransfer: no files specified")
		cl.usage(stderr)
		return exitFatal
	}

	t, err := resolve(s, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}

	logger, closeLog, err := openLogger(s, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}
	defer closeLog()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := signalContext(sigChan)
	defer cancel()

	prompt := newPrompter(stdin, stdout)
	link, err := openLink(s, prompt)
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}
	defer link.Close()

	rep := &reporter{out: stdout, errOut: stderr, settings: s, config: t.config, link: link}
	opts := []rctransfer.Option{
		rctransfer.WithConfig(t.config),
		rctransfer.WithCallbacks(rep.callbacks()),
		rctransfer.WithContext(ctx),
		rctransfer.WithRenamer(prompt.rename),
	}
	if logger != nil {
		logger.Info("opened %s link %s", link.Kind(), link.Name())
		opts = append(opts, rctransfer.WithLogger(logger))
	}
	session := rctransfer.NewSession(link, opts...)

	files, err := session.ExpandFiles(ctx, s.Files, t.specified, s.Receive)
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}

	var report *rctransfer.Report
	if s.Receive {
		report, err = session.ReceiveFiles(ctx, files)
	} else {
		report, err = session.SendFiles(ctx, files)
	}
	if err != nil {
		fmt.Fprintf(stderr, "rctransfer: %v\n", err)
		return exitFatal
	}
	if len(report.Failed()) > 0 || rep.skipped > 0 {
		return exitFailed
	}
	return exitOK
}

// openLink opens the link named by --port.
func openLink(s settings, prompt *prompter) (rctransfer.Link, error) {
	switch {
	case s.Port == "":
		return rctransfer.ConsoleLink{}, nil
	case strings.EqualFold(s.Port, rctransfer.ClipboardPort):
		return rctransfer.NewClipboardLink(), nil
	case rctransfer.IsSSHPort(s.Port):
		config, err := rctransfer.ParseSSHPort(s.Port)
		if err != nil {
			return nil, err
		}
		config.KeyFile = s.SSHKey
		config.InsecureIgnoreHostKey = s.SSHInsecure
		config.Password = prompt.password(config.Address)
		return rctransfer.DialSSH(config)
	default:
		config := rctransfer.DefaultSerialConfig(s.Port)
		config.Baud = s.Baud
		config.FlowControl = s.FlowControl
		config.Exclusive = s.ExclusivePort
		return rctransfer.OpenSerial(config)
	}
}

// openLogger builds the logger for --log and --verbose. It returns a nil
// logger when neither is given.
func openLogger(s settings, stderr io.Writer) (rctransfer.Logger, func(), error) {
	var loggers rctransfer.MultiLogger
	closeLog := func() {}
	if s.LogFile != "" {
		fl, err := rctransfer.NewFileLogger(s.LogFile)
		if err != nil {
			return nil, closeLog, rctransfer.WrapError(rctransfer.ErrConfig, "cannot open log", err)
		}
		loggers = append(loggers, fl)
		closeLog = func() { fl.Close() }
	}
	if s.Verbose {
		loggers = append(loggers, rctransfer.NewConsoleLogger(stderr, zerolog.InfoLevel))
	}
	switch len(loggers) {
	case 0:
		return nil, closeLog, nil
	case 1:
		return loggers[0], closeLog, nil
	}
	return loggers, closeLog, nil
}

func signalContext(sigChan chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func printUsage(cl *commandLine, w io.Writer) {
	fmt.Fprintf(w, "%s - transfer files to and from an RC2014 or similar CP/M computer\n\n", versionString)
	cl.usage(w)
	fmt.Fprint(w, `
Examples:
  rctransfer -p /dev/ttyUSB0 hello.txt          # package a file for DOWNLOAD.COM
  rctransfer -p /dev/ttyUSB0 -r 'A:*.TXT'       # receive files with UPLOAD.COM
  rctransfer -p clipboard -t cpm-plaintext x.txt # copy the keystrokes to the clipboard
  rctransfer hello.com                          # only show what would be sent
`)
}
