package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skdltmxn/classfile-go/class"
	"github.com/skdltmxn/classfile-go/internal/analysis"
	"github.com/skdltmxn/classfile-go/internal/archive"
)

var checkCmd = &cobra.Command{
	Use:   "check <class-file|jar>...",
	Short: "Verify the max stack of every method",
	Long: `Recompute the maximum operand-stack depth of every method and report
methods whose Code attribute declares a different value or whose bytecode
cannot be analyzed. Jar and zip archives are scanned in parallel.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

type checkStats struct {
	classes, methods, problems int
}

func runCheck(cmd *cobra.Command, args []string) error {
	var stats checkStats
	scanner := &archive.Scanner{Workers: cfg.Scan.Workers, Log: logger, Names: nameCache}

	for _, path := range args {
		if !archive.IsArchive(path) {
			c, err := openClass(path)
			if err != nil {
				return err
			}
			checkClass(path, c, &stats)
			continue
		}

		results, err := scanner.ScanFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(output, "%s!%s: %v\n", path, r.Name, r.Err)
				stats.problems++
				continue
			}
			checkClass(path+"!"+r.Name, r.Class, &stats)
		}
	}

	fmt.Fprintf(output, "Checked %d classes, %d methods: %d problems\n", stats.classes, stats.methods, stats.problems)
	if stats.problems > 0 {
		return fmt.Errorf("%d problems found", stats.problems)
	}
	return nil
}

func checkClass(where string, c *class.Class, stats *checkStats) {
	stats.classes++
	cp := c.ClassFile().ConstPool()

	var behaviors []class.Behavior
	for _, ctor := range c.Constructors() {
		behaviors = append(behaviors, ctor)
	}
	for _, m := range c.Methods() {
		behaviors = append(behaviors, m)
	}

	for _, b := range behaviors {
		code, err := b.Info().Code()
		if err != nil {
			fmt.Fprintf(output, "%s: %s: %v\n", where, b, err)
			stats.problems++
			continue
		}
		if code == nil {
			continue
		}
		stats.methods++

		depth, err := analysis.MaxStack(cp, code)
		switch {
		case err != nil:
			fmt.Fprintf(output, "%s: %s: %v\n", where, b, err)
			stats.problems++
		case depth != int(code.MaxStack):
			fmt.Fprintf(output, "%s: %s: max_stack is %d, computed %d\n", where, b, code.MaxStack, depth)
			stats.problems++
		default:
			logger.Debug("max stack verified",
				zap.String("method", b.Info().String()),
				zap.Int("depth", depth))
		}
	}
}
