// Package cli implements the interactive advisor launcher.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/crop-advisor/internal/adapter/file"
	"github.com/couchcryptid/crop-advisor/internal/domain"
	"github.com/couchcryptid/crop-advisor/internal/observability"
	"github.com/couchcryptid/crop-advisor/internal/report"
)

var (
	// ErrAborted is returned when input ends before a required answer.
	ErrAborted = errors.New("输入已结束，程序退出")

	// ErrInvalidChoice is returned for an unknown menu option.
	ErrInvalidChoice = errors.New("无效选项，程序退出")
)

// Generator produces a report for one observation.
type Generator interface {
	Generate(ctx context.Context, obs domain.CropObservation, location string) report.Report
}

// Publisher forwards a generated report, e.g. to Kafka.
type Publisher interface {
	Publish(ctx context.Context, r report.Report) error
}

// Options configures a Launcher. Publisher may be nil.
type Options struct {
	In        io.Reader
	Out       io.Writer
	Generator Generator
	Publisher Publisher
	WorkDir   string // observation files are resolved against it
	ReportDir string
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Launcher walks the user through choosing an observation source, prints the
// report and offers to save it.
type Launcher struct {
	in        *bufio.Reader
	out       io.Writer
	gen       Generator
	publisher Publisher
	workDir   string
	reportDir string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewLauncher creates a launcher from opts.
func NewLauncher(opts Options) *Launcher {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	reportDir := opts.ReportDir
	if reportDir == "" {
		reportDir = "."
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		in:        bufio.NewReader(opts.In),
		out:       opts.Out,
		gen:       opts.Generator,
		publisher: opts.Publisher,
		workDir:   workDir,
		metrics:   metrics,
		reportDir: reportDir,
		logger:    logger,
	}
}

// Run executes one launcher session.
func (l *Launcher) Run(ctx context.Context) error {
	l.println("农业智能顾问启动程序")
	l.println(strings.Repeat("=", 40))
	l.println("\n请选择数据输入方式:")
	l.println("1. 从JSON文件加载")
	l.println("2. 手动输入")
	l.println("3. 使用示例数据")

	choice, err := l.ask("\n请输入选项 (1/2/3): ")
	if err != nil {
		return err
	}

	var (
		obs      domain.CropObservation
		location string
	)
	switch choice {
	case "1":
		obs, location, err = l.fromFile()
	case "2":
		obs, location, err = l.fromManualEntry()
	case "3":
		obs, location, err = l.fromSample()
	default:
		return ErrInvalidChoice
	}
	if err != nil {
		return err
	}

	return l.generate(ctx, obs, location)
}

func (l *Launcher) fromFile() (domain.CropObservation, string, error) {
	name, err := l.ask(fmt.Sprintf("请输入JSON文件名 (默认为%s): ", file.DefaultObservationFile))
	if err != nil {
		return domain.CropObservation{}, "", err
	}
	if name == "" {
		name = file.DefaultObservationFile
	}

	obs, err := file.LoadObservation(l.resolve(name))
	if err != nil {
		l.observationFailed(err)
		return domain.CropObservation{}, "", err
	}

	obs, location := obs.SplitLocation()
	if location == "" {
		if location, err = l.ask("请输入地区: "); err != nil {
			return domain.CropObservation{}, "", err
		}
	}
	return obs, location, nil
}

func (l *Launcher) fromManualEntry() (domain.CropObservation, string, error) {
	l.println("\n=== 农业智能顾问数据输入 ===")

	var (
		obs      domain.CropObservation
		location string
		err      error
	)
	if obs.CropType, err = l.ask("请输入作物类型 (水稻/小麦/玉米): "); err != nil {
		return obs, "", err
	}
	if obs.GrowthStage, err = l.ask("请输入生长阶段 (如: 抽穗期): "); err != nil {
		return obs, "", err
	}
	if obs.SoilMoisture, err = l.askMoisture(); err != nil {
		return obs, "", err
	}
	if location, err = l.ask("请输入地区 (如: 北京): "); err != nil {
		return obs, "", err
	}

	l.println("\n请输入症状描述 (每行一个症状，输入空行结束):")
	obs.Symptoms = []string{}
	for {
		symptom, err := l.readLine()
		if symptom != "" {
			obs.Symptoms = append(obs.Symptoms, symptom)
		}
		if err != nil || symptom == "" {
			break
		}
	}

	if l.confirm("\n是否保存输入数据? (y/n): ") {
		name, err := l.ask("请输入保存文件名 (直接回车使用默认名称): ")
		if err != nil && !errors.Is(err, ErrAborted) {
			return obs, "", err
		}
		if name == "" {
			name = file.ObservationName(domain.Now())
		}
		path := l.resolve(name)
		if err := file.SaveObservation(path, obs); err != nil {
			l.println(fmt.Sprintf("保存作物数据失败: %v", err))
		} else {
			l.println("作物数据已保存到: " + path)
		}
	}
	return obs, location, nil
}

func (l *Launcher) fromSample() (domain.CropObservation, string, error) {
	obs, path, created, err := file.LoadOrCreateSample(l.workDir)
	if err != nil {
		l.observationFailed(err)
		return domain.CropObservation{}, "", err
	}
	if created {
		l.println("创建示例数据文件...")
		l.println("已创建示例文件: " + path)
	}
	l.println("使用示例数据进行评估...")

	obs, location := obs.SplitLocation()
	return obs, location, nil
}

// observationFailed counts files that could not be read as observations.
// Write failures while creating the sample are logged only.
func (l *Launcher) observationFailed(err error) {
	var ife *domain.InputFormatError
	if errors.As(err, &ife) {
		l.metrics.ObservationErrors.Inc()
	}
	l.logger.Warn("observation load failed", "error", err)
}

func (l *Launcher) generate(ctx context.Context, obs domain.CropObservation, location string) error {
	l.println("\n" + strings.Repeat("=", 50))
	l.println("正在生成农业智能报告...")
	l.println(strings.Repeat("=", 50))

	r := l.gen.Generate(ctx, obs, location)
	text := r.Text()
	l.println(text)

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, r); err != nil {
			l.logger.Warn("report publication failed", "error", err)
			l.println(fmt.Sprintf("报告发布失败: %v", err))
		}
	}

	if l.confirm("\n是否保存报告到文件? (y/n): ") {
		path := filepath.Join(l.reportDir, file.ReportName(domain.Now()))
		if err := file.SaveReport(path, text); err != nil {
			return fmt.Errorf("保存报告失败: %w", err)
		}
		l.println("报告已保存到: " + path)
	}
	return nil
}

// askMoisture repeats the prompt until a number within 0-100 is entered.
func (l *Launcher) askMoisture() (float64, error) {
	for {
		answer, err := l.ask("请输入土壤湿度百分比 (0-100): ")
		if err != nil {
			return 0, err
		}
		v, parseErr := strconv.ParseFloat(answer, 64)
		if parseErr == nil && v >= 0 && v <= 100 {
			return v, nil
		}
		l.println("土壤湿度必须是0-100之间的数字，请重新输入。")
	}
}

// ask prints prompt and returns the trimmed answer. Input ending before any
// answer yields ErrAborted.
func (l *Launcher) ask(prompt string) (string, error) {
	fmt.Fprint(l.out, prompt)
	answer, err := l.readLine()
	if err != nil && answer == "" {
		return "", err
	}
	return answer, nil
}

// confirm treats anything but y/Y, including end of input, as no.
func (l *Launcher) confirm(prompt string) bool {
	answer, err := l.ask(prompt)
	return err == nil && strings.ToLower(answer) == "y"
}

func (l *Launcher) readLine() (string, error) {
	line, err := l.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if errors.Is(err, io.EOF) {
		return line, ErrAborted
	}
	if err != nil {
		return line, fmt.Errorf("read input: %w", err)
	}
	return line, nil
}

func (l *Launcher) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.workDir, name)
}

func (l *Launcher) println(s string) {
	fmt.Fprintln(l.out, s)
}
