package domain

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error texts are shown to the user verbatim, so they are written in the
// report language.
var (
	// ErrMissingCredential is returned when no weather API key is configured.
	ErrMissingCredential = errors.New("未配置和风天气API密钥")

	// ErrUnsupportedCrop matches every *UnsupportedCropError.
	ErrUnsupportedCrop = errors.New("不支持的作物")

	// ErrNoPestMatch is returned when no pest record shares a symptom with the observation.
	ErrNoPestMatch = errors.New("未识别到匹配的病虫害。请提供更详细的症状描述或咨询当地农业专家。")

	// ErrNoWeather is reported by a zero WeatherResult.
	ErrNoWeather = errors.New("无天气数据")
)

// Table names the knowledge table a lookup was made against.
type Table string

const (
	TablePests      Table = "pests"
	TableIrrigation Table = "irrigation"
)

// UnsupportedCropError reports a crop absent from the knowledge base.
type UnsupportedCropError struct {
	Crop  string
	Table Table
}

func (e *UnsupportedCropError) Error() string {
	if e.Table == TableIrrigation {
		return "抱歉，目前没有该作物的灌溉指导数据。"
	}
	return "抱歉，目前没有该作物的病虫害数据库。"
}

func (e *UnsupportedCropError) Is(target error) bool {
	return target == ErrUnsupportedCrop
}

// NotFoundError reports a place name the location lookup could not resolve.
type NotFoundError struct {
	Location string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("未找到城市: %s", e.Location)
}

// Weather API stages, in call order.
const (
	StageLookup = "lookup"
	StageNow    = "now"
	StageDaily  = "3d"
	StageHourly = "24h"
)

var stagePrefixes = map[string]string{
	StageLookup: "获取位置信息失败",
	StageNow:    "获取天气数据失败",
	StageDaily:  "获取天气预报失败",
	StageHourly: "获取小时预报失败",
}

// UpstreamError reports a failed weather API call: transport failure,
// non-success HTTP status, non-success status code field, or a malformed payload.
type UpstreamError struct {
	Stage   string
	Status  int    // HTTP status, 0 when no response was received
	Code    string // status code field of the payload, if decoded
	Message string // upstream message, if any
	Err     error
}

func (e *UpstreamError) Error() string {
	prefix, ok := stagePrefixes[e.Stage]
	if !ok {
		prefix = "获取天气数据时发生错误"
	}
	message := e.Message
	if message == "" {
		message = "未知错误"
	}
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	case e.Status != 0 && (e.Status < 200 || e.Status > 299):
		return fmt.Sprintf("%s: HTTP %d: %s", prefix, e.Status, message)
	case e.Code != "":
		return fmt.Sprintf("%s: %s (code %s)", prefix, message, e.Code)
	default:
		return fmt.Sprintf("%s: %s", prefix, message)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// InputFormatError reports an observation file that is missing, malformed, or invalid.
type InputFormatError struct {
	Path string
	Err  error
}

func (e *InputFormatError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("错误: 找不到文件 %s", e.Path)
	}
	return fmt.Sprintf("错误: %s 文件格式不正确: %v", e.Path, e.Err)
}

func (e *InputFormatError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for err. Typed and sentinel
// errors keep their own message even when wrapped; anything else is shown as is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		unsupported *UnsupportedCropError
		notFound    *NotFoundError
		upstream    *UpstreamError
		input       *InputFormatError
	)
	switch {
	case errors.As(err, &unsupported):
		return unsupported.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &upstream):
		return upstream.Error()
	case errors.As(err, &input):
		return input.Error()
	}
	for _, sentinel := range []error{ErrMissingCredential, ErrNoPestMatch, ErrNoWeather} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
