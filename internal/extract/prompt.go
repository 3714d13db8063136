package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NewPromptDecider returns a DecisionFunc that asks for a verdict on each
// candidate over the given reader/writer pair (normally stdin/stdout).
// Answers: y = accept, s = skip file, a = skip all, anything else = reject.
func NewPromptDecider(in io.Reader, out io.Writer) DecisionFunc {
	reader := bufio.NewReader(in)

	return func(c Candidate) (Decision, error) {
		fmt.Fprintf(out, "Change identified in %s:\n  %s\n", c.FilePath, c.Line)
		fmt.Fprint(out, "Do you want to retain this setting? [y]es | [N]o | [s]kip file | skip [a]ll: ")

		answer, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return Reject, err
		}

		switch strings.ToUpper(strings.TrimSpace(answer)) {
		case "Y":
			return Accept, nil
		case "S":
			return SkipFile, nil
		case "A":
			return SkipAll, nil
		default:
			return Reject, nil
		}
	}
}
