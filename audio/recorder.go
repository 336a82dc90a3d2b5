// Package audio records, stores and plays back scene narration.
//
// A Recorder owns one capture at a time, the way a single microphone
// would. Finished captures are uploaded to a BlobStore and become Clips
// addressed by id and URL; the URL is what scenes keep in audioUrl. A
// ClipIndex maps both back to the blob.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyCapturing = errors.New("a recording is already in progress")
	ErrNoActiveCapture  = errors.New("no recording in progress")
	ErrEmptyRecording   = errors.New("recording is empty")
	ErrClipNotFound     = errors.New("audio clip not found")
)

// DefaultContentType is used when a capture is started without one.
const DefaultContentType = "audio/webm"

// Clip is a stored recording.
type Clip struct {
	ID          string        `json:"id"`
	URL         string        `json:"url"`
	Key         string        `json:"-"`
	ContentType string        `json:"contentType"`
	Size        int64         `json:"size"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type capture struct {
	contentType string
	buf         bytes.Buffer
}

type RecorderOption func(*Recorder)

// WithProber reads each clip's duration after upload.
func WithProber(p Prober) RecorderOption {
	return func(r *Recorder) { r.prober = p }
}

// WithClipIndex replaces the in-memory clip index.
func WithClipIndex(idx ClipIndex) RecorderOption {
	return func(r *Recorder) { r.clips = idx }
}

// WithPlaybackPrefix sets the URL prefix for clips the blob store does not
// publish itself. The clip id is appended.
func WithPlaybackPrefix(prefix string) RecorderOption {
	return func(r *Recorder) { r.prefix = prefix }
}

type Recorder struct {
	mu     sync.Mutex
	blobs  BlobStore
	prober Prober
	prefix string
	active *capture
	clips  ClipIndex
	now    func() time.Time
}

func NewRecorder(blobs BlobStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		blobs:  blobs,
		prefix: "/api/audio/",
		clips:  NewMemoryClips(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartCapture begins a new recording.
func (r *Recorder) StartCapture(_ context.Context, contentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return ErrAlreadyCapturing
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	r.active = &capture{contentType: contentType}
	return nil
}

// Capturing reports whether a recording is in progress.
func (r *Recorder) Capturing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Write appends a chunk of encoded audio to the current recording.
func (r *Recorder) Write(chunk []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0, ErrNoActiveCapture
	}
	return r.active.buf.Write(chunk)
}

// StopCapture ends the recording and uploads it. The capture is finished
// even when the upload fails.
func (r *Recorder) StopCapture(ctx context.Context) (Clip, error) {
	r.mu.Lock()
	c := r.active
	r.active = nil
	r.mu.Unlock()

	if c == nil {
		return Clip{}, ErrNoActiveCapture
	}
	if c.buf.Len() == 0 {
		return Clip{}, ErrEmptyRecording
	}

	id := uuid.NewString()
	clip := Clip{
		ID:          id,
		Key:         "recordings/" + id + extension(c.contentType),
		ContentType: c.contentType,
		Size:        int64(c.buf.Len()),
		CreatedAt:   r.now(),
	}
	data := c.buf.Bytes()

	url, err := r.blobs.Put(ctx, clip.Key, clip.ContentType, bytes.NewReader(data), clip.Size)
	if err != nil {
		return Clip{}, fmt.Errorf("store recording: %w", err)
	}
	if url == "" {
		url = r.prefix + id
	}
	clip.URL = url

	if r.prober != nil {
		d, err := r.prober.Duration(ctx, data)
		if err != nil {
			log.Printf("Failed to probe recording %s: %v", id, err)
		} else {
			clip.Duration = d
		}
	}

	if err := r.clips.Save(ctx, clip); err != nil {
		if derr := r.blobs.Delete(ctx, clip.Key); derr != nil {
			log.Printf("Failed to remove unindexed recording %s: %v", id, derr)
		}
		return Clip{}, err
	}
	return clip, nil
}

// Get returns the clip with id.
func (r *Recorder) Get(ctx context.Context, id string) (Clip, error) {
	return r.clips.Get(ctx, id)
}

// Open returns the clip's bytes. The caller closes the reader.
func (r *Recorder) Open(ctx context.Context, id string) (io.ReadCloser, Clip, error) {
	clip, err := r.Get(ctx, id)
	if err != nil {
		return nil, Clip{}, err
	}
	body, err := r.blobs.Open(ctx, clip.Key)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, Clip{}, ErrClipNotFound
	}
	if err != nil {
		return nil, Clip{}, err
	}
	return body, clip, nil
}

// Play streams the clip addressed by url (or its id) to w and returns
// when playback has finished or ctx is cancelled.
func (r *Recorder) Play(ctx context.Context, url string, w io.Writer) error {
	clip, err := r.resolve(ctx, url)
	if err != nil {
		return err
	}
	body, _, err := r.Open(ctx, clip.ID)
	if err != nil {
		return err
	}
	defer body.Close()

	if _, err := io.Copy(w, readerWithContext{ctx: ctx, r: body}); err != nil {
		return fmt.Errorf("play %s: %w", clip.ID, err)
	}
	return nil
}

// Delete removes the clip and its blob. Deleting an unknown clip is not an
// error.
func (r *Recorder) Delete(ctx context.Context, id string) error {
	clip, err := r.clips.Get(ctx, id)
	if errors.Is(err, ErrClipNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.blobs.Delete(ctx, clip.Key); err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	return r.clips.Delete(ctx, id)
}

// resolve finds a clip by id, by stored URL, or by a playback URL built
// from the prefix.
func (r *Recorder) resolve(ctx context.Context, url string) (Clip, error) {
	c, err := r.clips.Get(ctx, url)
	if !errors.Is(err, ErrClipNotFound) {
		return c, err
	}
	c, err = r.clips.FindByURL(ctx, url)
	if !errors.Is(err, ErrClipNotFound) {
		return c, err
	}
	if strings.HasPrefix(url, r.prefix) {
		return r.clips.Get(ctx, strings.TrimPrefix(url, r.prefix))
	}
	return Clip{}, ErrClipNotFound
}

func extension(contentType string) string {
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	switch base {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4":
		return ".m4a"
	}
	return ".bin"
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (rc readerWithContext) Read(p []byte) (int, error) {
	if err := rc.ctx.Err(); err != nil {
		return 0, err
	}
	return rc.r.Read(p)
}
