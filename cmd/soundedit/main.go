package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SunguochaoYeepay/sound-Edit/internal/config"
	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
	"github.com/SunguochaoYeepay/sound-Edit/internal/studio"
	"github.com/SunguochaoYeepay/sound-Edit/internal/task"
)

func usage() {
	fmt.Println("SoundEdit - compose and render multi-track audio projects")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  soundedit <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  save      -file <project.json>           Validate and store a project document")
	fmt.Println("  validate  -project <id>                  Check a stored project without rendering")
	fmt.Println("  export    -project <id> [-wait]          Render the full project to its export format")
	fmt.Println("  preview   -project <id> [-start -duration] [-wait]")
	fmt.Println("                                           Render a sub-range as WAV")
	fmt.Println("  status    -task <id>                     Show a render task's state")
	fmt.Println("  list                                     List stored projects")
	fmt.Println("  tasks                                    List render tasks")
	fmt.Println("  delete    -project <id>                  Remove a stored project")
	fmt.Println("  waveform  -project <id> -out <png> [-width -height]")
	fmt.Println("                                           Render a peak-overview image")
	fmt.Println()
	fmt.Println("For interactive mode, use: soundedit-tui")
	fmt.Println()
	fmt.Println("Global options:")
	fmt.Println("  -config <path>   Settings file (SOUNDEDIT_* env vars override)")
	fmt.Println("  -verbose         Show verbose output")
}

func main() {
	// A .env next to the binary is convenient for dev setups; its
	// absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var (
		configFlag   = fs.String("config", "", "Path to config file")
		verboseFlag  = fs.Bool("verbose", false, "Show verbose output")
		fileFlag     = fs.String("file", "", "Project JSON document to save")
		projectFlag  = fs.String("project", "", "Project id")
		taskFlag     = fs.String("task", "", "Task id")
		startFlag    = fs.Float64("start", 0, "Preview start time in seconds")
		durationFlag = fs.Float64("duration", 0, "Preview duration in seconds (0 = default)")
		waitFlag     = fs.Bool("wait", true, "Wait for the render to finish")
		outFlag      = fs.String("out", "", "Output path for the waveform image")
		widthFlag    = fs.Int("width", 800, "Waveform image width")
		heightFlag   = fs.Int("height", 160, "Waveform image height")
	)
	fs.Parse(os.Args[2:])

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	svc, err := studio.NewService(settings, studio.Options{
		OnProgress: func(event task.Event) {
			if event.Level == task.LevelVerbose && !*verboseFlag {
				return
			}

			prefix := "   "
			switch event.Level {
			case task.LevelError:
				prefix = "✗ "
			case task.LevelWarning:
				prefix = "! "
			case task.LevelSuccess:
				prefix = "✓ "
			case task.LevelInfo:
				prefix = "› "
			}
			fmt.Println(prefix + event.Message)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	svc.Start(ctx)
	defer svc.Close()

	if err := run(ctx, svc, command, runArgs{
		file: *fileFlag, project: *projectFlag, taskID: *taskFlag,
		start: *startFlag, duration: *durationFlag, wait: *waitFlag,
		out: *outFlag, width: *widthFlag, height: *heightFlag,
	}); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nCancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runArgs struct {
	file, project, taskID string
	start, duration       float64
	wait                  bool
	out                   string
	width, height         int
}

func run(ctx context.Context, svc *studio.Service, command string, args runArgs) error {
	switch command {
	case "save":
		if args.file == "" {
			return fmt.Errorf("save requires -file")
		}
		data, err := os.ReadFile(args.file)
		if err != nil {
			return err
		}
		var p model.Project
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parse %s: %w", args.file, err)
		}
		saved, err := svc.SaveProject(ctx, &p)
		if err != nil {
			return err
		}
		fmt.Printf("Saved project %s (%.2fs)\n", saved.Info.ID, saved.Info.TotalDuration)
		return nil

	case "validate":
		if args.project == "" {
			return fmt.Errorf("validate requires -project")
		}
		result, err := svc.ValidateProject(ctx, args.project)
		if err != nil {
			return err
		}
		for _, e := range result.Errors {
			fmt.Println("✗ " + e)
		}
		for _, w := range result.Warnings {
			fmt.Println("! " + w)
		}
		if !result.Valid {
			return fmt.Errorf("project %s is invalid", args.project)
		}
		fmt.Println("Project is valid.")
		return nil

	case "export":
		if args.project == "" {
			return fmt.Errorf("export requires -project")
		}
		taskID, err := svc.StartExport(ctx, args.project)
		if err != nil {
			return err
		}
		return finishRender(ctx, svc, taskID, args.wait)

	case "preview":
		if args.project == "" {
			return fmt.Errorf("preview requires -project")
		}
		taskID, err := svc.StartPreview(ctx, args.project, args.start, args.duration)
		if err != nil {
			return err
		}
		return finishRender(ctx, svc, taskID, args.wait)

	case "status":
		if args.taskID == "" {
			return fmt.Errorf("status requires -task")
		}
		rec, err := svc.TaskStatus(ctx, args.taskID)
		if err != nil {
			return err
		}
		printTask(rec)
		return nil

	case "list":
		infos, err := svc.ListProjects(ctx)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No projects.")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%-40s  %8.2fs  %s\n", info.ID, info.TotalDuration, info.Title)
		}
		return nil

	case "tasks":
		recs, err := svc.ListTasks(ctx)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No render tasks.")
			return nil
		}
		for _, rec := range recs {
			printTask(rec)
		}
		return nil

	case "delete":
		if args.project == "" {
			return fmt.Errorf("delete requires -project")
		}
		if err := svc.DeleteProject(ctx, args.project); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args.project)
		return nil

	case "waveform":
		if args.project == "" || args.out == "" {
			return fmt.Errorf("waveform requires -project and -out")
		}
		if err := svc.RenderWaveform(ctx, args.project, args.width, args.height, args.out); err != nil {
			return err
		}
		fmt.Printf("Wrote waveform to %s\n", args.out)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// finishRender either waits for the task or just reports its id.
func finishRender(ctx context.Context, svc *studio.Service, taskID string, wait bool) error {
	fmt.Printf("Render task: %s\n", taskID)
	if !wait {
		return nil
	}

	for {
		rec, err := svc.TaskStatus(ctx, taskID)
		if err != nil {
			return err
		}
		if rec.State.Terminal() {
			printTask(rec)
			if rec.State == model.StateFailed {
				return fmt.Errorf("render failed: %s", rec.Message)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
	}
}

func printTask(rec model.StatusRecord) {
	line := fmt.Sprintf("%s  %-10s  %s", rec.TaskID, rec.State, rec.Message)
	if rec.OutputPath != "" {
		line += "  -> " + rec.OutputPath
	}
	fmt.Println(line)
}
