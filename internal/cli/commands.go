package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/taskhive/taskhive/internal/client"
)

func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "server is up")
	return nil
}

func (a *App) Register(ctx context.Context) error {
	password, err := a.getPassword()
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, a.username, password, a.accessLevel); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s as %s\n", a.username, a.accessLevel)
	return nil
}

func (a *App) Projects(ctx context.Context) error {
	list, err := a.client.GetProjectsList(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "%s\t%s\n", name, list[name])
	}
	return nil
}

func (a *App) CreateProject(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: create-project <name> <description>")
	}
	return a.withSession(ctx, func(token string) error {
		if err := a.client.CreateProject(ctx, token, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "project %s created\n", args[0])
		return nil
	})
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return fmt.Errorf("usage: upload <project> <payload-file> [metadata-file]")
	}

	payload, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var metadata []byte
	if len(args) == 3 {
		if metadata, err = os.ReadFile(args[2]); err != nil {
			return err
		}
	}

	return a.withSession(ctx, func(token string) error {
		id, err := a.client.CreateBlob(ctx, token, args[0], payload, metadata)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "blob %d created\n", id)
		return nil
	})
}

func (a *App) Promote(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: promote <project> <blob-id>")
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad blob id %q", args[1])
	}
	return a.withSession(ctx, func(token string) error {
		if err := a.client.BlobToTask(ctx, token, args[0], id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "blob %d is now a task\n", id)
		return nil
	})
}

func (a *App) ListBlobs(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list-blobs <project>")
	}
	return a.withSession(ctx, func(token string) error {
		meta, err := a.client.GetBlobMetadata(ctx, token, args[0], nil)
		if err != nil {
			return err
		}

		ids := make([]uint64, 0, len(meta))
		for id := range meta {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(a.out, "%d\t%q\n", id, meta[id])
		}
		return nil
	})
}

func (a *App) GetBlob(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: get-blob <project> <blob-id> <out-file>")
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad blob id %q", args[1])
	}
	return a.withSession(ctx, func(token string) error {
		blob, metadata, err := a.client.GetBlob(ctx, token, args[0], id)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[2], blob, 0o600); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "wrote %d bytes to %s (metadata %q)\n", len(blob), args[2], metadata)
		return nil
	})
}

func (a *App) DeleteBlob(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: delete-blob <project> <blob-id>")
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad blob id %q", args[1])
	}
	return a.withSession(ctx, func(token string) error {
		if err := a.client.DeleteBlob(ctx, token, args[0], id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "blob %d deleted\n", id)
		return nil
	})
}

func (a *App) Tasks(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tasks <project> <max>")
	}
	maxTasks, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad max %q", args[1])
	}
	return a.withSession(ctx, func(token string) error {
		tasks, err := a.client.GetTasks(ctx, token, args[0], maxTasks)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			name := fmt.Sprintf("task-%d.bin", task.ID)
			if err := os.WriteFile(name, task.Payload, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "task %d\t%d bytes\t%s\n", task.ID, len(task.Payload), name)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(a.out, "no tasks available")
		}
		return nil
	})
}

func (a *App) Report(ctx context.Context, args []string) error {
	if len(args) != 3 && len(args) != 4 {
		return fmt.Errorf("usage: report <project> <task-id> <status> [result-file]")
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad task id %q", args[1])
	}

	var results, metadatas [][]byte
	if len(args) == 4 {
		result, err := os.ReadFile(args[3])
		if err != nil {
			return err
		}
		results = [][]byte{result}
		metadatas = [][]byte{nil}
	}

	return a.withSession(ctx, func(token string) error {
		if err := a.client.SendTaskResult(ctx, token, args[0], id, results, metadatas, args[2]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "task %d reported as %s\n", id, args[2])
		return nil
	})
}

func (a *App) Graphs(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("usage: graphs <project> [precision] [kind]")
	}
	precision := int64(60)
	if len(args) >= 2 {
		p, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad precision %q", args[1])
		}
		precision = p
	}
	kind := "all"
	if len(args) == 3 {
		kind = args[2]
	}

	graphs, err := a.client.GetGraphs(ctx, args[0], precision, kind)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s: %s\n", args[0], graphs.Description)
	names := make([]string, 0, len(graphs.Series))
	for name := range graphs.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		series := graphs.Series[name]
		fmt.Fprintf(a.out, "%s (%d points)\n", name, len(series))
		for _, p := range series {
			fmt.Fprintf(a.out, "  %s\t%g\n", time.Unix(p.Timestamp, 0).UTC().Format(time.RFC3339), p.Value)
		}
	}
	return nil
}

// UpdateGraphs replaces a project's custom graphs from a JSON file of
// the form {"name": [[timestamp, value], ...], ...}.
func (a *App) UpdateGraphs(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: update-graphs <project> <series-file>")
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var raw map[string][][2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", args[1], err)
	}

	series := make(map[string][]client.Sample, len(raw))
	for name, points := range raw {
		samples := make([]client.Sample, 0, len(points))
		for _, p := range points {
			samples = append(samples, client.Sample{Timestamp: int64(p[0]), Value: p[1]})
		}
		series[name] = samples
	}

	return a.withSession(ctx, func(token string) error {
		if err := a.client.UpdateCustomGraphs(ctx, token, args[0], series); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "custom graphs for %s updated\n", args[0])
		return nil
	})
}
