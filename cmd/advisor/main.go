package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crop-advisor/internal/adapter/file"
	kafkaadapter "github.com/couchcryptid/crop-advisor/internal/adapter/kafka"
	"github.com/couchcryptid/crop-advisor/internal/adapter/qweather"
	"github.com/couchcryptid/crop-advisor/internal/cli"
	"github.com/couchcryptid/crop-advisor/internal/config"
	"github.com/couchcryptid/crop-advisor/internal/domain"
	"github.com/couchcryptid/crop-advisor/internal/knowledge"
	"github.com/couchcryptid/crop-advisor/internal/observability"
	"github.com/couchcryptid/crop-advisor/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(newApp).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, domain.UserMessage(err))
		os.Exit(1)
	}
}

// app holds the wired dependencies of one command run.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	kb        *knowledge.Base
	weather   *qweather.Client
	assembler *report.Assembler
	publisher *kafkaadapter.Publisher
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	kb, err := loadKnowledge(cfg)
	if err != nil {
		return nil, err
	}

	return wire(cfg, kb, metrics, logger), nil
}

func wire(cfg *config.Config, kb *knowledge.Base, metrics *observability.Metrics, logger *slog.Logger) *app {
	weather := qweather.NewClient(cfg, metrics, logger)
	a := &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		kb:        kb,
		weather:   weather,
		assembler: report.NewAssembler(weather, kb, metrics, logger),
	}

	// Report publication is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	if cfg.KafkaEnabled {
		a.publisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		logger.Info("kafka report publication enabled", "topic", cfg.KafkaReportTopic)
	}
	return a
}

func loadKnowledge(cfg *config.Config) (*knowledge.Base, error) {
	if cfg.KnowledgeFile == "" {
		return knowledge.Embedded()
	}
	kb, err := knowledge.LoadFile(cfg.KnowledgeFile)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base %s: %w", cfg.KnowledgeFile, err)
	}
	return kb, nil
}

// launcherPublisher returns nil when publication is disabled so the launcher
// sees a true nil interface.
func (a *app) launcherPublisher() cli.Publisher {
	if a.publisher == nil {
		return nil
	}
	return a.publisher
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := a.weather.Close(); err != nil {
		a.logger.Error("weather client close error", "error", err)
	}
	if a.cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.logger.Error("metrics export failed", "error", err)
		}
	}
}

// appFactory builds the dependencies for one command run.
type appFactory func() (*app, error)

// withApp wires the dependencies for a command and releases them afterwards.
func withApp(build appFactory, run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := build()
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd.Context(), a, cmd, args)
	}
}

func newRootCmd(build appFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "advisor",
		Short: "农业智能顾问",
		Long:  "根据作物信息、症状、土壤湿度和当地天气生成病虫害诊断与灌溉建议。",
		Args:  cobra.NoArgs,
		RunE: withApp(build, func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			launcher := cli.NewLauncher(cli.Options{
				In:        cmd.InOrStdin(),
				Out:       cmd.OutOrStdout(),
				Generator: a.assembler,
				Publisher: a.launcherPublisher(),
				ReportDir: a.cfg.ReportDir,
				Metrics:   a.metrics,
				Logger:    a.logger,
			})
			return launcher.Run(ctx)
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReportCmd(build), newSampleCmd(), newCropsCmd(build), newLocateCmd(build))
	return root
}

func newReportCmd(build appFactory) *cobra.Command {
	var (
		location string
		out      string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "根据观测文件生成报告",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(build, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (text, json)", format)
			}
			path := file.DefaultObservationFile
			if len(args) == 1 {
				path = args[0]
			}

			obs, err := file.LoadObservation(path)
			if err != nil {
				a.metrics.ObservationErrors.Inc()
				return err
			}
			obs, fileLocation := obs.SplitLocation()
			if location == "" {
				location = fileLocation
			}
			if location == "" {
				return errors.New("未指定地区: 请在文件中提供 location 或使用 --location")
			}

			r := a.assembler.Generate(ctx, obs, location)
			if a.publisher != nil {
				if err := a.publisher.Publish(ctx, r); err != nil {
					a.logger.Warn("report publication failed", "error", err)
				}
			}
			return writeReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), r, format, out)
		}),
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "地区 (覆盖文件中的 location)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "同时将报告写入该文件")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "输出格式 (text, json)")
	return cmd
}

func writeReport(w, errW io.Writer, r report.Report, format, out string) error {
	var data []byte
	if format == "json" {
		var err error
		if data, err = r.JSON(); err != nil {
			return err
		}
	} else {
		data = []byte(r.Text() + "\n")
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if out != "" {
		if err := file.SaveReport(out, string(data)); err != nil {
			return err
		}
		fmt.Fprintln(errW, "报告已保存到: "+out)
	}
	return nil
}

func newSampleCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "创建示例观测文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, created, err := file.LoadOrCreateSample(dir)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "已创建示例文件: "+path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "示例文件已存在: "+path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "示例文件所在目录")
	return cmd
}

func newCropsCmd(build appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "列出知识库中的作物",
		Args:  cobra.NoArgs,
		RunE: withApp(build, func(_ context.Context, a *app, cmd *cobra.Command, _ []string) error {
			cli.WriteCrops(cmd.OutOrStdout(), a.kb.Crops())
			return nil
		}),
	}
}

func newLocateCmd(build appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <地区>",
		Short: "查询和风天气城市信息",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(build, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			loc, err := a.weather.ResolveLocation(ctx, args[0])
			if err != nil {
				return err
			}
			cli.WriteLocation(cmd.OutOrStdout(), loc)
			return nil
		}),
	}
}
