package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/notify"
	"github.com/ShayCichocki/suitpredict/internal/state"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// editPrefix marks a line as an edit of an earlier message.
const editPrefix = "edit:"

var (
	replayVerbose bool
	replayLearned bool
	replayAllDay  bool
	replayStart   string
	replayStep    time.Duration
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Feed a message log through an in-memory engine",
	Long: `Replay channel messages through a fresh in-memory engine and print
what it would have predicted.

The file holds one message per line; "-" reads stdin. A line starting
with "edit:" is an edit of an earlier message. Each message advances a
virtual clock by --step from --start, so cooldowns, session windows and
periodic relearns behave as they would live.

Nothing is persisted and nothing is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Print engine logs and outbound messages")
	replayCmd.Flags().BoolVar(&replayLearned, "learned", false, "Start in learned mode")
	replayCmd.Flags().BoolVar(&replayAllDay, "all-day", false, "Treat every hour as an open session")
	replayCmd.Flags().StringVar(&replayStart, "start", "", "Virtual start time, YYYY-MM-DD HH:MM in the session zone (default: today 09:00)")
	replayCmd.Flags().DurationVar(&replayStep, "step", time.Minute, "Virtual time between messages")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if replayLearned {
		cfg.Engine.LearnedActive = true
	}
	if replayAllDay {
		cfg.Session.Windows = []string{"0-24"}
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open replay file: %w", err)
		}
		defer f.Close()
		in = f
	}

	if !replayVerbose {
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	notifier := notify.NewLogNotifier(!replayVerbose)
	eng, clock, err := newEngine(cfg, state.NewMemory(), notifier, nil)
	if err != nil {
		return err
	}

	start, err := replayStartTime(replayStart, clock.Location(), time.Now())
	if err != nil {
		return err
	}

	stats, err := replay(context.Background(), eng, in, start, replayStep)
	if err != nil {
		return err
	}
	displayReplay(stats, len(notifier.Messages()))
	return nil
}

// replayStartTime parses value in loc, defaulting to 09:00 on the day of now.
func replayStartTime(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if value == "" {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 9, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --start %q: %w", value, err)
	}
	return t, nil
}

type replayStats struct {
	Messages  int
	Parsed    int
	Observed  int
	Corrected int
	Created   int
	Rejected  int
	Relearns  int
	Report    models.SessionReport
}

// replay feeds every line of r to eng on a virtual clock.
func replay(ctx context.Context, eng *engine.Engine, r io.Reader, start time.Time, step time.Duration) (replayStats, error) {
	var stats replayStats
	now := start
	eng.SetClock(func() time.Time { return now })

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		edited := false
		if rest, ok := strings.CutPrefix(line, editPrefix); ok {
			edited = true
			line = strings.TrimSpace(rest)
		}
		stats.Messages++

		if eng.Tick(ctx, now) {
			stats.Relearns++
		}
		res := eng.HandleMessage(ctx, engine.Message{Text: line, Edited: edited, At: now})
		if res.Parsed {
			stats.Parsed++
		}
		if res.Observed {
			stats.Observed++
		}
		if res.Corrected {
			stats.Corrected++
		}
		if res.Created != nil {
			stats.Created++
		}
		if res.Rejected != nil {
			stats.Rejected++
		}

		now = now.Add(step)
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read replay input: %w", err)
	}

	stats.Report = eng.Report()
	return stats, nil
}

func displayReplay(s replayStats, sent int) {
	bold := color.New(color.Bold)

	bold.Println("Replay:")
	fmt.Printf("  Messages: %d (%d parsed, %d observed, %d corrected)\n", s.Messages, s.Parsed, s.Observed, s.Corrected)
	fmt.Printf("  Relearns: %d\n", s.Relearns)
	fmt.Printf("  Predictions: %d created, %d refused, %d messages sent\n", s.Created, s.Rejected, sent)

	r := s.Report
	rate := color.New(color.FgGreen)
	if r.Total > 0 && r.Rate() < 50 {
		rate = color.New(color.FgRed)
	}
	fmt.Println()
	bold.Println("Result:")
	fmt.Printf("  %s %s pending %d\n", color.GreenString("✓%d", r.Won), color.RedString("✗%d", r.Lost), r.Pending)
	fmt.Printf("  Win rate: %s\n", rate.Sprintf("%.1f%%", r.Rate()))
	fmt.Printf("  Won at offset 0/1/2: %d/%d/%d\n", r.ByOffset[0], r.ByOffset[1], r.ByOffset[2])
}
