package cmd

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roffe/cansig/pkg/bar"
	"github.com/roffe/cansig/pkg/slcan"
)

func init() {
	rootCmd.AddCommand(validateCmd)
	fs := validateCmd.Flags()
	fs.IntP(flagWorkers, "j", 4, "parallel validation workers")
	fs.BoolP(flagQuiet, "q", false, "suppress per-line problems")
}

type captureLine struct {
	number int
	text   string
}

var validateCmd = &cobra.Command{
	Use:   "validate <capture>",
	Short: "check every frame token in an slcan capture file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workers, err := cmd.Flags().GetInt(flagWorkers)
		if err != nil {
			return err
		}
		if workers < 1 {
			workers = 1
		}
		quiet, err := cmd.Flags().GetBool(flagQuiet)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read capture %q: %w", args[0], err)
		}
		lines := splitCapture(data)
		if len(lines) == 0 {
			fmt.Println(yellow("empty capture"))
			return nil
		}

		var frames, chatter, invalid int64
		var mu sync.Mutex
		var problems []captureLine

		pbar := bar.New(len(lines), "validating")
		work := make(chan captureLine)

		errg, _ := errgroup.WithContext(cmd.Context())
		for i := 0; i < workers; i++ {
			errg.Go(func() error {
				for line := range work {
					switch {
					case slcan.IsChatter(line.text):
						atomic.AddInt64(&chatter, 1)
					default:
						if _, err := slcan.Unmarshal(line.text); err != nil {
							atomic.AddInt64(&invalid, 1)
							mu.Lock()
							problems = append(problems, captureLine{line.number, err.Error()})
							mu.Unlock()
						} else {
							atomic.AddInt64(&frames, 1)
						}
					}
					pbar.Add(1)
				}
				return nil
			})
		}
		for _, line := range lines {
			work <- line
		}
		close(work)
		if err := errg.Wait(); err != nil {
			return err
		}
		pbar.Finish()
		fmt.Println()

		fmt.Println(green("%d valid frames", frames))
		if chatter > 0 {
			fmt.Printf("%d chatter lines skipped\n", chatter)
		}
		if invalid == 0 {
			return nil
		}
		if !quiet {
			sort.Slice(problems, func(i, j int) bool { return problems[i].number < problems[j].number })
			for _, p := range problems {
				fmt.Println(red("line %d: %s", p.number, p.text))
			}
		}
		return fmt.Errorf("%d invalid frames", invalid)
	},
}

// splitCapture breaks a capture into non-empty lines with their numbers,
// accepting \r, \n and \r\n endings.
func splitCapture(data []byte) []captureLine {
	var out []captureLine
	start := 0
	number := 0
	flush := func(end int) {
		if end > start {
			number++
			out = append(out, captureLine{number, string(data[start:end])})
		}
		start = end + 1
	}
	for i, b := range data {
		if b == '\r' || b == '\n' {
			flush(i)
		}
	}
	flush(len(data))
	return out
}
