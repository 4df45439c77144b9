package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"

	"reelforge/internal/compose"
	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/media/fetch"
	"reelforge/internal/services"
	"reelforge/internal/speech"
	"reelforge/internal/subtitles"
	"reelforge/internal/textutil"
)

// minClipRemainder is the shortest tail of a video source worth a
// per-chunk segment of its own.
const minClipRemainder = 0.1

// requestRun holds the state of one Run call.
type requestRun struct {
	p        *Pipeline
	req      content.Request
	id       string
	observer Observer
	logger   *slog.Logger
	started  time.Time
	stage    string

	preset     config.Preset
	lang       language.Tag
	workDir    string
	logoPath   string
	musicPath  string
	renderer   *subtitles.Renderer
	segmenter  textutil.Segmenter
	compositor *compose.Compositor
	segments   []string
}

func (r *requestRun) enter(ctx context.Context, stage string, item int, message string) context.Context {
	r.stage = stage
	ctx = services.WithStage(ctx, stage)
	if item >= 0 {
		ctx = services.WithItemIndex(ctx, item)
	}
	if r.observer != nil {
		r.observer(Progress{RequestID: r.id, Stage: stage, Item: item, Items: len(r.req.Items), Message: message})
	}
	return ctx
}

func (r *requestRun) execute(ctx context.Context) (Result, error) {
	vctx := r.enter(ctx, StageValidate, -1, "validating request")
	if err := r.prepare(vctx); err != nil {
		return Result{}, err
	}

	cfg := r.p.cfg
	r.workDir = filepath.Join(cfg.Paths.WorkDir, r.id)
	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, StageValidate, "create work dir", r.workDir, err)
	}
	defer removeQuietly(r.logger, r.workDir, "work directory")

	r.logger.Info("render started",
		logging.String(logging.FieldEventType, "request_started"),
		logging.String("preset", r.preset.Name),
		logging.String("language", r.lang.String()),
		logging.Int("items", len(r.req.Items)),
	)

	actx := r.enter(ctx, StageAcquire, -1, "fetching shared assets")
	if err := r.acquireShared(actx); err != nil {
		return Result{}, err
	}

	for i, item := range r.req.Items {
		if err := ctx.Err(); err != nil {
			return Result{}, stageError(services.ErrTimeout, r.stage, "cancelled", err)
		}
		if err := r.renderItem(ctx, i, item); err != nil {
			return Result{}, err
		}
	}

	sctx := r.enter(ctx, StageAssemble, -1, "joining segments")
	final := filepath.Join(r.workDir, "final.mp4")
	manifest := filepath.Join(r.workDir, "concat.txt")
	if err := r.p.deps.Assembler.Assemble(sctx, r.segments, manifest, final); err != nil {
		return Result{}, stageError(services.ErrAssembly, StageAssemble, "concat", err)
	}

	fctx := r.enter(ctx, StageFinalize, -1, "publishing outputs")
	return r.finalize(fctx, final)
}

func (r *requestRun) prepare(ctx context.Context) error {
	cfg := r.p.cfg
	if err := r.req.Validate(content.ValidateOptions{AllowLocalFiles: r.p.allowLocal}); err != nil {
		return err
	}
	preset, err := cfg.Preset(r.req.Preset)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageValidate, "preset", "", err)
	}
	r.preset = preset
	lang, err := r.req.Language()
	if err != nil {
		return services.Wrap(services.ErrValidation, StageValidate, "language", "", err)
	}
	r.lang = lang

	segmenter, err := textutil.NewSegmenter(preset.Chunking, preset.WordsPerChunk)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageValidate, "segmenter", "", err)
	}
	r.segmenter = segmenter

	font, err := r.p.font(preset.FontPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageValidate, "font", preset.FontPath, err)
	}
	renderer, err := subtitles.NewRenderer(subtitles.StyleFromPreset(preset, lang), font)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageValidate, "subtitle style", "", err)
	}
	r.renderer = renderer
	r.compositor = compose.New(r.p.deps.Encoder, compose.NewProfile(preset, cfg.Encoder), r.p.logger)
	logging.WithContext(ctx, r.p.logger).Debug("request validated",
		logging.String("preset", preset.Name),
		logging.String("chunking", preset.Chunking),
		logging.String("timing", preset.Timing),
	)
	return nil
}

func (r *requestRun) acquireShared(ctx context.Context) error {
	if logo := strings.TrimSpace(r.req.LogoURL); logo != "" {
		raw, err := r.p.deps.Fetcher.Fetch(ctx, logo, fetch.KindLogo, r.workDir, "logo_raw")
		if err != nil {
			return stageError(services.ErrDownload, StageAcquire, "logo", err)
		}
		fitted := filepath.Join(r.workDir, "logo.png")
		if err := fetch.FitLogo(raw, fitted, r.preset.LogoMode, r.preset.LogoWidth, r.preset.LogoHeight); err != nil {
			return services.Wrap(services.ErrDownload, StageAcquire, "logo", "decode logo", err)
		}
		r.logoPath = fitted
	}

	switch music := strings.TrimSpace(r.req.BackgroundMusicURL); {
	case music != "":
		path, err := r.p.deps.Fetcher.Fetch(ctx, music, fetch.KindMusic, r.workDir, "music")
		if err != nil {
			return stageError(services.ErrDownload, StageAcquire, "music", err)
		}
		r.musicPath = path
	case r.preset.MusicPath != "":
		if !fileutil.NonEmpty(r.preset.MusicPath) {
			return services.Wrap(services.ErrConfiguration, StageAcquire, "music", "preset music file missing: "+r.preset.MusicPath, nil)
		}
		r.musicPath = r.preset.MusicPath
	}
	return nil
}

func (r *requestRun) renderItem(ctx context.Context, index int, item content.Item) error {
	actx := r.enter(ctx, StageAcquire, index, "fetching media")
	asset, err := r.acquireItem(actx, index, item)
	if err != nil {
		return err
	}

	nctx := r.enter(ctx, StageNarrate, index, "synthesizing narration")
	text := r.req.NarrationText(item)
	chunks := r.segmenter.Segment(text)
	if len(chunks) == 0 {
		return services.Wrap(services.ErrValidation, StageNarrate, "segment", fmt.Sprintf("content[%d] has no narration after formatting", index), nil)
	}
	cues := make([]compose.Cue, 0, len(chunks))
	ext := speech.Extension(r.p.cfg.Speech.AudioEncoding)
	for j, chunk := range chunks {
		clip, err := r.p.deps.Speech.Synthesize(nctx, speech.Utterance{
			Text:         chunk,
			LanguageCode: r.req.LanguageCode,
			VoiceName:    r.req.VoiceName,
			SpeakingRate: r.preset.SpeakingRate,
		}, workPath(r.workDir, assetName("voice", index, j)+ext))
		if err != nil {
			return stageError(services.ErrSynthesis, StageNarrate, "synthesize", err)
		}
		subtitle, err := r.renderer.Render(chunk, workPath(r.workDir, assetName("subtitle", index, j)+".png"))
		if err != nil {
			return services.Wrap(services.ErrComposition, StageNarrate, "subtitle", "", err)
		}
		cues = append(cues, compose.Cue{SubtitlePath: subtitle, AudioPath: clip.Path, Duration: clip.Duration})
	}

	cctx := r.enter(ctx, StageCompose, index, "encoding segments")
	base := compose.Segment{
		Media:       compose.Media{Path: asset.media, Kind: item.Type},
		LogoPath:    r.logoPath,
		OverlayPath: asset.overlay,
		MusicPath:   r.musicPath,
	}
	if r.preset.Timing == config.TimingWindowed {
		seg := base
		seg.Cues = cues
		seg.Windowed = true
		seg.Output = workPath(r.workDir, assetName("segment", index)+".mp4")
		if err := r.compositor.Compose(cctx, seg); err != nil {
			return stageError(services.ErrComposition, StageCompose, "encode", err)
		}
		r.segments = append(r.segments, seg.Output)
		return nil
	}
	var offset float64
	for j, cue := range cues {
		seg := base
		if item.Type == content.ItemVideo {
			if j > 0 && asset.duration-offset < minClipRemainder {
				logging.WarnWithContext(logging.WithContext(cctx, r.p.logger), "source clip exhausted before narration", "narration_truncated",
					logging.Int("dropped_chunks", len(cues)-j),
					logging.Float64("clip_seconds", asset.duration),
					logging.String(logging.FieldImpact, "remaining narration for this item is not rendered"),
				)
				break
			}
			seg.Media.Start = offset
			offset += cue.Duration
		}
		seg.Cues = []compose.Cue{cue}
		seg.Output = workPath(r.workDir, assetName("segment", index, j)+".mp4")
		if err := r.compositor.Compose(cctx, seg); err != nil {
			return stageError(services.ErrComposition, StageCompose, "encode", err)
		}
		r.segments = append(r.segments, seg.Output)
	}
	return nil
}

// itemAsset is the acquired base layer of one content item. duration is the
// playable length of a video source and zero for stills.
type itemAsset struct {
	media    string
	overlay  string
	duration float64
}

func (r *requestRun) acquireItem(ctx context.Context, index int, item content.Item) (itemAsset, error) {
	kind := fetch.KindVideo
	if item.Type == content.ItemImage {
		kind = fetch.KindImage
	}
	media, err := r.p.deps.Fetcher.Fetch(ctx, item.URL, kind, r.workDir, assetName("media", index))
	if err != nil {
		return itemAsset{}, stageError(services.ErrDownload, StageAcquire, "media", err)
	}
	asset := itemAsset{media: media}
	switch {
	case item.Type == content.ItemVideo:
		if asset.duration, err = r.inspectVideo(ctx, index, media); err != nil {
			return itemAsset{}, err
		}
	case r.preset.ImageFit == config.ImageCrop:
		fitted := workPath(r.workDir, assetName("media", index)+"_fit.png")
		if err := fetch.CropToFrame(media, fitted, r.preset.Width, r.preset.Height); err != nil {
			return itemAsset{}, services.Wrap(services.ErrDownload, StageAcquire, "media", "decode image", err)
		}
		asset.media = fitted
	}

	if source := strings.TrimSpace(item.OverlayURL); source != "" {
		raw, err := r.p.deps.Fetcher.Fetch(ctx, source, fetch.KindOverlay, r.workDir, assetName("overlay_raw", index))
		if err != nil {
			return itemAsset{}, stageError(services.ErrDownload, StageAcquire, "overlay", err)
		}
		asset.overlay = workPath(r.workDir, assetName("overlay", index)+".png")
		if err := fetch.StretchToFrame(raw, asset.overlay, r.preset.Width, r.preset.Height); err != nil {
			return itemAsset{}, services.Wrap(services.ErrDownload, StageAcquire, "overlay", "decode overlay", err)
		}
	}
	return asset, nil
}

// inspectVideo rejects downloads without a video stream and returns the
// playable duration of the clip.
func (r *requestRun) inspectVideo(ctx context.Context, index int, path string) (float64, error) {
	info, err := r.p.deps.Encoder.Probe(ctx, path)
	if err != nil {
		return 0, services.Wrap(services.ErrDownload, StageAcquire, "media", "probe video", err)
	}
	if info.VideoStreamCount() == 0 {
		return 0, services.Wrap(services.ErrDownload, StageAcquire, "media",
			fmt.Sprintf("content[%d] has no video stream", index), nil)
	}
	duration, err := info.PlayableDuration()
	if err != nil {
		return 0, services.Wrap(services.ErrDownload, StageAcquire, "media", "probe video", err)
	}
	width, height, _ := info.VideoSize()
	logging.WithContext(ctx, r.p.logger).Debug("video acquired",
		logging.Int("width", width),
		logging.Int("height", height),
		logging.Float64("duration_seconds", duration),
		logging.Int("audio_streams", info.AudioStreamCount()),
		logging.Int64("bit_rate", info.BitRate()),
	)
	return duration, nil
}

func (r *requestRun) finalize(ctx context.Context, final string) (Result, error) {
	cfg := r.p.cfg
	duration, err := r.p.deps.Encoder.Duration(ctx, final)
	if err != nil {
		return Result{}, stageError(services.ErrAssembly, StageFinalize, "probe final video", err)
	}

	videoPath := filepath.Join(cfg.Paths.OutputDir, r.id+".mp4")
	thumbPath := filepath.Join(cfg.Paths.ThumbnailDir, r.id+".jpg")
	if err := fileutil.MoveFile(final, videoPath); err != nil {
		removeQuietly(r.logger, videoPath, "partial video")
		return Result{}, services.Wrap(services.ErrAssembly, StageFinalize, "publish video", videoPath, err)
	}
	if err := r.p.deps.Assembler.Thumbnail(ctx, videoPath, thumbPath); err != nil {
		removeQuietly(r.logger, videoPath, "partial video")
		removeQuietly(r.logger, thumbPath, "partial thumbnail")
		return Result{}, stageError(services.ErrAssembly, StageFinalize, "thumbnail", err)
	}
	return Result{
		RequestID:     r.id,
		Preset:        r.preset.Name,
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
		Duration:      duration,
		Segments:      len(r.segments),
	}, nil
}
