package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/drunlade/go-rctransfer/rctransfer"
	"golang.org/x/term"
)

// prompter asks the user for 8.3 names and passwords.
type prompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	scanner     *bufio.Scanner
}

func newPrompter(in *os.File, out io.Writer) *prompter {
	return &prompter{
		in:          in,
		out:         out,
		interactive: term.IsTerminal(int(in.Fd())),
	}
}

// readLine reads one answer, with line editing on a terminal.
func (p *prompter) readLine(prompt string) (string, error) {
	if p.interactive {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          prompt,
			InterruptPrompt: "^C",
			Stdout:          p.out,
		})
		if err == nil {
			defer rl.Close()
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				return "", rctransfer.NewError(rctransfer.ErrCancelled, "rename interrupted")
			}
			if err != nil {
				return "", rctransfer.WrapError(rctransfer.ErrCancelled, "no answer", err)
			}
			return strings.TrimSpace(line), nil
		}
	}

	fmt.Fprint(p.out, prompt)
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.in)
	}
	if !p.scanner.Scan() {
		// no more input: accept the proposal
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// rename asks until the answer is a valid 8.3 name.
func (p *prompter) rename(original, proposed string) (string, error) {
	for {
		answer, err := p.readLine(fmt.Sprintf("%s needs to be renamed to 8.3 format [%s]: ", original, proposed))
		if err != nil {
			return "", err
		}
		if _, ok := rctransfer.NormalizeTargetName(answer, proposed); ok {
			return answer, nil
		}
		fmt.Fprintf(p.out, "%s is not a valid filename.\n", strings.ToUpper(answer))
	}
}

// password reads an SSH password without echo.
func (p *prompter) password(address string) func() (string, error) {
	return func() (string, error) {
		if password := os.Getenv("RCTRANSFER_SSH_PASSWORD"); password != "" {
			return password, nil
		}
		f, ok := p.in.(*os.File)
		if !ok || !p.interactive {
			return "", rctransfer.NewError(rctransfer.ErrConfig, "no terminal to ask for the SSH password")
		}
		fmt.Fprintf(p.out, "Password for %s: ", address)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", rctransfer.WrapError(rctransfer.ErrConfig, "cannot read password", err)
		}
		return string(pw), nil
	}
}
