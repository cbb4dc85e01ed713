package capture

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"VizFM/logger"
)

// encoderOptions 启动一次编码所需的全部参数
type encoderOptions struct {
	FFmpegPath string
	Dir        string // 分块输出目录
	Width      int
	Height     int
	FrameRate  int
	ChunkSecs  string
	SampleRate int  // 音频采样率，HasAudio 为 true 时有效
	HasAudio   bool
}

// encoderHandle 一次运行中的编码器。
// 实现要求：WriteFrame/WriteAudio 并发安全地分别从视频/音频协程调用，
// Finalize 关闭输入并等待编码器把最后一个分块落盘。
type encoderHandle interface {
	WriteFrame(rgba []byte) error
	WriteAudio(pcm []byte) error
	Finalize() error
}

// encoderFactory 编码器构造函数，测试用桩实现替换。
type encoderFactory func(opts encoderOptions) (encoderHandle, error)

// ffmpegEncoder 基于 ffmpeg 的编码器：
// 视频走 stdin（rawvideo RGBA），音频走 fd 3（s16le 单声道），
// 输出按 mpegts 分段落盘——ts 分块可以直接按序拼接成合法的流。
type ffmpegEncoder struct {
	cmd   *exec.Cmd
	video io.WriteCloser
	audio *os.File // 管道写端，无音频时为 nil
}

// newFFmpegEncoder 启动 ffmpeg 编码进程
func newFFmpegEncoder(opts encoderOptions) (encoderHandle, error) {
	args := []string{
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", fmt.Sprintf("%d", opts.FrameRate),
		"-i", "pipe:0",
	}

	var audioRead, audioWrite *os.File
	if opts.HasAudio {
		var err error
		audioRead, audioWrite, err = os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("创建音频管道失败: %w", err)
		}
		args = append(args,
			"-f", "s16le",
			"-ar", fmt.Sprintf("%d", opts.SampleRate),
			"-ac", "1",
			"-i", "pipe:3",
			"-c:a", "aac",
			"-b:a", "192k",
		)
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-f", "segment",
		"-segment_time", opts.ChunkSecs,
		"-segment_format", "mpegts",
		filepath.Join(opts.Dir, "chunk_%05d.ts"),
	)

	cmd := exec.Command(opts.FFmpegPath, args...)
	if opts.HasAudio {
		// 读端通过 ExtraFiles 传入，子进程里即 fd 3
		cmd.ExtraFiles = []*os.File{audioRead}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		if audioRead != nil {
			audioRead.Close()
			audioWrite.Close()
		}
		return nil, fmt.Errorf("获取 ffmpeg stdin 失败: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if audioRead != nil {
			audioRead.Close()
			audioWrite.Close()
		}
		return nil, fmt.Errorf("启动 ffmpeg 失败: %w", err)
	}

	// 父进程侧的读端交给子进程后即可关闭
	if audioRead != nil {
		audioRead.Close()
	}

	logger.Info("编码器已启动",
		logger.Int("width", opts.Width),
		logger.Int("height", opts.Height),
		logger.Int("frameRate", opts.FrameRate),
		logger.Bool("hasAudio", opts.HasAudio))

	return &ffmpegEncoder{cmd: cmd, video: stdin, audio: audioWrite}, nil
}

func (e *ffmpegEncoder) WriteFrame(rgba []byte) error {
	_, err := e.video.Write(rgba)
	return err
}

func (e *ffmpegEncoder) WriteAudio(pcm []byte) error {
	if e.audio == nil {
		return nil
	}
	_, err := e.audio.Write(pcm)
	return err
}

// Finalize 关闭输入让 ffmpeg 收尾，并等待进程退出。
func (e *ffmpegEncoder) Finalize() error {
	e.video.Close()
	if e.audio != nil {
		e.audio.Close()
	}
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg 收尾失败: %w", err)
	}
	return nil
}
