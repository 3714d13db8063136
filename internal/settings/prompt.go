package settings

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	certificateInput = regexp.MustCompile(`^[0-9]{6,8}$`)
	ratingInput      = regexp.MustCompile(`^[0-9]$`)
)

// PromptResolver resolves settings conflicts and missing values over a
// terminal-style reader/writer pair.
type PromptResolver struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPromptResolver creates a PromptResolver (normally over stdin/stdout).
func NewPromptResolver(in io.Reader, out io.Writer) *PromptResolver {
	return &PromptResolver{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// SelectValue shows a numbered menu of the conflicting values plus an option
// to enter a new one, looping until a valid choice is made.
func (p *PromptResolver) SelectValue(key string, options []string) (string, error) {
	for {
		fmt.Fprintf(p.out, "Select the %s you wish to use below\n", key)
		fmt.Fprintln(p.out, strings.Repeat("-", 30))
		for i, option := range options {
			fmt.Fprintf(p.out, "%d.\t%s\n", i+1, option)
		}
		fmt.Fprintf(p.out, "n.\tEnter new %s\n", key)

		fmt.Fprintf(p.out, "Please select which %s you wish to use in all profiles: ", key)
		choice, err := p.readLine()
		if err != nil {
			return "", err
		}

		if strings.EqualFold(choice, "n") {
			fmt.Fprintf(p.out, "Enter the new %s: ", key)
			return p.readLine()
		}
		if idx, err := strconv.Atoi(choice); err == nil && idx >= 1 && idx <= len(options) {
			return options[idx-1], nil
		}
		fmt.Fprintf(p.out, "Invalid input %q. Please enter the number of the option you wish to use.\n", choice)
	}
}

// EnterValue prompts for a missing value, validating certificate and rating
// formats. Secret values are accepted as typed and never repeated back.
func (p *PromptResolver) EnterValue(key string, secret bool) (string, error) {
	for {
		switch key {
		case "certificate":
			fmt.Fprint(p.out, "Enter your certificate or CID: ")
		case "rating":
			fmt.Fprint(p.out, "Enter your rating: ")
		case "password":
			fmt.Fprint(p.out, "Enter your password (input is not masked): ")
		default:
			fmt.Fprintf(p.out, "Enter your %s: ", key)
		}

		value, err := p.readLine()
		if err != nil {
			return "", err
		}

		switch key {
		case "certificate":
			if !certificateInput.MatchString(value) {
				fmt.Fprintln(p.out, "A certificate is 6 to 8 digits.")
				continue
			}
		case "rating":
			if !ratingInput.MatchString(value) {
				fmt.Fprintln(p.out, "A rating is a single digit.")
				continue
			}
		}
		return value, nil
	}
}

// ConfirmPlugin asks whether to keep one discovered plugin. Default is yes.
func (p *PromptResolver) ConfirmPlugin(path string) (bool, error) {
	fmt.Fprintf(p.out, "%s\nDo you want to add this plugin? [Y|n] ", path)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return !strings.EqualFold(answer, "n"), nil
}

func (p *PromptResolver) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
