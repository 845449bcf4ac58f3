// genctl drives the generation pipeline from the command line: submit a
// prompt, stitch existing clip URLs, or transcribe an audio file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"clipforge/internal/assemble"
	"clipforge/internal/generate"
	"clipforge/internal/infra"
	"clipforge/internal/providers/aiml"
	"clipforge/internal/providers/prompt"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		exitWithError(errors.New("usage: genctl <generate|stitch|transcribe> [flags]"))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, cfg, &logger, os.Args[2:])
	case "stitch":
		err = runStitch(ctx, cfg, &logger, os.Args[2:])
	case "transcribe":
		err = runTranscribe(ctx, cfg, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		exitWithError(err)
	}
}

func runGenerate(ctx context.Context, cfg *infra.Config, logger *infra.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	promptFlag := fs.String("prompt", "", "video concept to generate")
	durationFlag := fs.Int("duration", 10, "total duration in seconds")
	qualityFlag := fs.String("quality", "", "rendering tier (high, medium)")
	styleFlag := fs.String("style", "", "visual style to apply")
	pairedFlag := fs.Bool("paired", false, "generate a two-scene hook/payoff ad")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*promptFlag) == "" {
		return errors.New("-prompt is required")
	}

	orchestrator, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	params := generate.Params{
		Prompt:          prompt.ApplyStyle(*promptFlag, *styleFlag),
		DurationSeconds: *durationFlag,
		Quality:         generate.Quality(strings.ToLower(*qualityFlag)),
	}
	var res generate.Result
	if *pairedFlag {
		res = orchestrator.GeneratePairedAd(ctx, params)
	} else {
		res = orchestrator.Generate(ctx, params)
	}
	if !res.Success {
		return fmt.Errorf("generation failed: %w", res.Failure)
	}

	fmt.Printf("artifact: %s\n", res.OutputPath)
	for i, seg := range res.Segments {
		fmt.Printf("segment %d (%ds): %s\n", i+1, seg.Scene.DurationSeconds, seg.MediaURL)
	}
	return nil
}

func runStitch(ctx context.Context, cfg *infra.Config, logger *infra.Logger, args []string) error {
	fs := flag.NewFlagSet("stitch", flag.ExitOnError)
	modeFlag := fs.String("mode", cfg.StitchMode, "join mode (crossfade, seamless)")
	outFlag := fs.String("out", "", "output artifact key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	urls := fs.Args()
	if len(urls) == 0 {
		return errors.New("usage: genctl stitch [flags] <url> [url...]")
	}

	assembler, err := assemble.New(assemble.Options{
		OutputDir:  cfg.StoragePath,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	res := assembler.Assemble(ctx, urls, assemble.Mode(*modeFlag), *outFlag)
	if !res.Success {
		return fmt.Errorf("stitch failed at %s: %w", res.Stage, res.Err)
	}
	fmt.Printf("artifact: %s\n", res.OutputPath)
	return nil
}

func runTranscribe(ctx context.Context, cfg *infra.Config, args []string) error {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	fileFlag := fs.String("file", "", "audio file to transcribe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fileFlag == "" {
		return errors.New("-file is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required for transcription")
	}

	client, err := prompt.NewOpenAIClient(prompt.Options{
		BaseURL:         cfg.OpenAIBaseURL,
		APIKey:          cfg.OpenAIAPIKey,
		TranscribeModel: cfg.OpenAITranscribeModel,
	})
	if err != nil {
		return err
	}

	f, err := os.Open(*fileFlag)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := client.Transcribe(ctx, f.Name(), f)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func buildOrchestrator(cfg *infra.Config, logger *infra.Logger) (*generate.Orchestrator, error) {
	providerClient, err := aiml.NewClient(aiml.Options{
		BaseURL:           cfg.ProviderBaseURL,
		APIKey:            cfg.ProviderAPIKey,
		GeneratePath:      cfg.ProviderGeneratePath,
		StatusPath:        cfg.ProviderStatusPath,
		StatusQueryParam:  cfg.ProviderStatusQueryParam,
		DefaultModel:      cfg.ProviderDefaultModel,
		ConnectTimeout:    cfg.ProviderConnectTimeout,
		ReadTimeout:       cfg.ProviderReadTimeout,
		StatusReadTimeout: cfg.ProviderStatusReadTimeout,
		SubmitAttempts:    cfg.ProviderSubmitAttempts,
		StatusAttempts:    cfg.ProviderStatusAttempts,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	assembler, err := assemble.New(assemble.Options{
		OutputDir:  cfg.StoragePath,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	var planner generate.TextPlanner
	if cfg.OpenAIAPIKey != "" {
		openai, err := prompt.NewOpenAIClient(prompt.Options{
			BaseURL:   cfg.OpenAIBaseURL,
			APIKey:    cfg.OpenAIAPIKey,
			ChatModel: cfg.OpenAIChatModel,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		planner = openai
	}

	return &generate.Orchestrator{
		Submitter: providerClient,
		Waiter: &generate.Poller{
			Client:   providerClient,
			Interval: cfg.PollInterval,
			MaxWait:  cfg.PollMaxWait,
			Logger:   logger,
		},
		Planner:  &generate.ScenePlanner{Planner: planner, Logger: logger},
		Stitcher: assembler,
		Mode:     assemble.Mode(cfg.StitchMode),
		Logger:   logger,
	}, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "genctl:", err)
	os.Exit(1)
}
