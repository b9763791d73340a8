package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"easel/internal/config"
	"easel/internal/job"
	"easel/internal/submit"
)

type generateFlags struct {
	models         []string
	count          int
	negativePrompt string
	mode           string
	image          string
	size           string
	seed           int64
	cfgScale       float64
	samplingMethod string
	sampleSteps    int
	clipSkip       int
	strength       float64

	videoFrames int
	videoFPS    int
	flowShift   float64

	upscaleFactor int
	resizeMode    string
	targetSize    string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Submit generation jobs to the queue",
		Long: `Submit generation jobs to the queue.

One submission fans out into one job per selected model per requested image,
so "--model a --model b --count 3" enqueues six independent jobs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			prompt := ""
			if len(args) > 0 {
				prompt = args[0]
			}
			req, err := buildSubmitRequest(cfg, flags, prompt)
			if err != nil {
				return err
			}

			engine, err := ctx.submitEngine()
			if err != nil {
				return err
			}
			result, err := engine.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Summary())
			for _, failure := range result.Failures {
				fmt.Fprintf(out, "  failed: %v\n", failure)
			}

			if store, storeErr := ctx.historyStore(); storeErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: history unavailable: %v\n", storeErr)
			} else if store != nil {
				defer store.Close()
				if recordErr := store.RecordBatch(cmd.Context(), req, result); recordErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: record history: %v\n", recordErr)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&flags.models, "model", "m", nil, "Target model identifier (repeatable)")
	cmd.Flags().IntVarP(&flags.count, "count", "n", 0, "Images to generate per model")
	cmd.Flags().StringVar(&flags.negativePrompt, "negative-prompt", "", "Content to steer away from")
	cmd.Flags().StringVar(&flags.mode, "mode", "generate", "Operation mode: generate, edit, video, upscale")
	cmd.Flags().StringVarP(&flags.image, "image", "i", "", "Source image file (switches generate to variation)")
	cmd.Flags().StringVar(&flags.size, "size", "", "Output size as WIDTHxHEIGHT")
	cmd.Flags().Int64Var(&flags.seed, "seed", -1, "Generation seed (ignored when --count > 1)")
	cmd.Flags().Float64Var(&flags.cfgScale, "cfg-scale", 0, "Guidance scale")
	cmd.Flags().StringVar(&flags.samplingMethod, "sampling-method", "", "Sampling method")
	cmd.Flags().IntVar(&flags.sampleSteps, "steps", 0, "Sampling steps")
	cmd.Flags().IntVar(&flags.clipSkip, "clip-skip", 0, "CLIP skip layers")
	cmd.Flags().Float64Var(&flags.strength, "strength", 0, "Variation strength (0-1)")
	cmd.Flags().IntVar(&flags.videoFrames, "frames", 0, "Video frame count (video mode)")
	cmd.Flags().IntVar(&flags.videoFPS, "fps", 0, "Video frames per second (video mode)")
	cmd.Flags().Float64Var(&flags.flowShift, "flow-shift", 0, "Video flow shift (video mode)")
	cmd.Flags().IntVar(&flags.upscaleFactor, "factor", 0, "Upscale factor (upscale mode)")
	cmd.Flags().StringVar(&flags.resizeMode, "resize-mode", "", "Upscale resize mode (upscale mode)")
	cmd.Flags().StringVar(&flags.targetSize, "target-size", "", "Upscale target size as WIDTHxHEIGHT")

	return cmd
}

// buildSubmitRequest merges config defaults with command-line flags into a
// fan-out request. Flag values win; unset flags fall back to the generate
// section of the config.
func buildSubmitRequest(cfg *config.Config, flags *generateFlags, prompt string) (submit.Request, error) {
	mode, ok := job.ParseMode(flags.mode)
	if !ok {
		return submit.Request{}, fmt.Errorf("unknown mode %q", flags.mode)
	}
	if mode == job.ModeVariation {
		// Variation is reached by passing a source image to generate.
		return submit.Request{}, fmt.Errorf("use --mode generate with --image instead of --mode variation")
	}

	count := flags.count
	if count <= 0 {
		count = cfg.Generate.Count
	}

	params := job.GenerationParams{
		Width:          cfg.Generate.Width,
		Height:         cfg.Generate.Height,
		CfgScale:       cfg.Generate.CfgScale,
		SamplingMethod: cfg.Generate.SamplingMethod,
		SampleSteps:    cfg.Generate.SampleSteps,
		ClipSkip:       cfg.Generate.ClipSkip,
	}
	if flags.size != "" {
		width, height, err := parseSize(flags.size)
		if err != nil {
			return submit.Request{}, err
		}
		params.Width = width
		params.Height = height
	}
	if flags.seed >= 0 {
		if flags.seed > math.MaxUint32 {
			return submit.Request{}, fmt.Errorf("seed %d exceeds the 32-bit maximum %d", flags.seed, uint32(math.MaxUint32))
		}
		seed := uint32(flags.seed)
		params.Seed = &seed
	}
	if flags.cfgScale > 0 {
		params.CfgScale = flags.cfgScale
	}
	if flags.samplingMethod != "" {
		params.SamplingMethod = flags.samplingMethod
	}
	if flags.sampleSteps > 0 {
		params.SampleSteps = flags.sampleSteps
	}
	if flags.clipSkip > 0 {
		params.ClipSkip = flags.clipSkip
	}
	if flags.strength > 0 {
		params.Strength = flags.strength
	}

	switch mode {
	case job.ModeVideo:
		params.VideoFrames = flags.videoFrames
		params.VideoFPS = flags.videoFPS
		params.FlowShift = flags.flowShift
	case job.ModeUpscale:
		params.UpscaleFactor = flags.upscaleFactor
		params.ResizeMode = flags.resizeMode
		if flags.targetSize != "" {
			width, height, err := parseSize(flags.targetSize)
			if err != nil {
				return submit.Request{}, err
			}
			params.TargetWidth = width
			params.TargetHeight = height
		}
	}

	req := submit.Request{
		Mode:           mode,
		Models:         flags.models,
		Count:          count,
		Prompt:         prompt,
		NegativePrompt: flags.negativePrompt,
		Params:         params,
	}

	if imagePath := strings.TrimSpace(flags.image); imagePath != "" {
		expanded, err := config.ExpandPath(imagePath)
		if err != nil {
			return submit.Request{}, fmt.Errorf("resolve image path: %w", err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return submit.Request{}, fmt.Errorf("read source image: %w", err)
		}
		req.SourceImage = data
		req.SourceImageName = filepath.Base(expanded)
	}

	return req, nil
}
