// Command maprtplan is a demonstration harness, not part of the fusion
// middle-end itself: it reads a JSON DAG description, runs it through the
// Fusioner and Task factory, enumerates each task's initial jobs, and
// prints a plan summary: a thin driver over the library, not the
// library itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/fusion"
	"github.com/tilefuse/maprt/job"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/runtime"
	"github.com/tilefuse/maprt/task"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maprtplan",
		Short: "maprtplan fuses a map-algebra DAG and prints its execution plan.",
		Long: `maprtplan reads a JSON DAG description, runs the Fusioner, builds the
resulting tasks, and prints a summary of the clusters, dependency shapes,
and initial job counts the job engine would schedule.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newPlanCmd())
	return cmd
}

func newPlanCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan <dag.json>",
		Short: "Fuse a DAG description and print its task plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := runtime.DefaultConfig()
			if configPath != "" {
				loaded, err := runtime.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				cfg = loaded
			}

			dag, err := ReadDAG(args[0])
			if err != nil {
				return err
			}

			rt := runtime.New(nil)
			rt.Config = cfg

			order, _, err := BuildGraph(rt, dag)
			if err != nil {
				return fmt.Errorf("building graph: %w", err)
			}

			clusters := order2clusters(rt, order)
			tasks := task.BuildAll(rt, clusters)

			printPlan(cmd, rt, tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML runtime config file")
	return cmd
}

// order2clusters runs the Fusioner. rt.Config.CodeFusion already gates
// Run's absorption phases (gentle and bottom-up pipe fusion) internally;
// when it is false, every node still gets prev-edged and linked into its
// own singleton cluster by Run's unconditional phases, which is the
// degenerate-but-connected plan useful for comparing against the fused
// one — a hand-rolled fallback here would just disconnect it.
func order2clusters(rt *runtime.Runtime, order []node.ID) []*cluster.Cluster {
	return fusion.Run(rt, order)
}

func printPlan(cmd *cobra.Command, rt *runtime.Runtime, tasks []*task.Task) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d node(s) fused into %d task(s)\n\n", len(rt.Nodes()), len(tasks))

	for i, t := range tasks {
		jobs := job.InitialJobs(rt, t)
		fmt.Fprintf(out, "task %d  kind=%-8s  body=%d  in=%d  out=%d  jobs=%d  prev_jobs_count=%d\n",
			i, kindName(t.Kind), len(t.Cluster.NodeList), len(t.Cluster.InList),
			len(t.Cluster.OutList), len(jobs), t.PrevJobsCount)
		for _, p := range t.Prev {
			fmt.Fprintf(out, "  <- task %d\n", indexOf(tasks, p))
		}
	}
}

func indexOf(tasks []*task.Task, target *task.Task) int {
	for i, t := range tasks {
		if t == target {
			return i
		}
	}
	return -1
}

func kindName(k task.Kind) string {
	switch k {
	case task.KindGeneric:
		return "generic"
	case task.KindLoop:
		return "loop"
	case task.KindRadial:
		return "radial"
	case task.KindScalar:
		return "scalar"
	case task.KindTail:
		return "tail"
	default:
		return "unknown"
	}
}
