package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Received frame queue.
 *
 * Description: Turn a byte stream from a TNC, a socket, or a file into
 *		a queue of decoded items.
 *
 *		Any of the decoders can be plugged in.  They only see
 *		chunks of bytes and never do I/O themselves.  The reader
 *		goroutine here does the blocking reads and hands the
 *		results to a consumer through a bounded channel.
 *		A slow consumer holds back reading.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ChunkDecoder turns arbitrary slices of a byte stream into items.
// Update may be called with any split of the stream and must produce
// the same items as for the whole.  Flush is called at end of stream.
type ChunkDecoder[T any] interface {
	Update(chunk []byte) ([]T, error)
	Flush() ([]T, error)
}

// RecvFrame is something received from a TNC.
type RecvFrame struct {
	Channel int
	Cmd     byte   // KISS_CMD_DATA_FRAME, or KISS_CMD_SET_HARDWARE for a TNC response.
	Frame   *Frame // Data frames.
	Data    []byte // Other commands.
}

type channelDecoder struct {
	dec     ChunkDecoder[*Frame]
	channel int
}

// OnChannel labels the frames from a decoder with no channel information,
// such as HDLCDecoder or TNC2Decoder, so they can be handled like KISS.
func OnChannel(dec ChunkDecoder[*Frame], channel int) ChunkDecoder[*RecvFrame] {
	return &channelDecoder{dec: dec, channel: channel}
}

func (c *channelDecoder) Update(chunk []byte) ([]*RecvFrame, error) {
	var frames, err = c.dec.Update(chunk)
	return c.wrap(frames), err
}

func (c *channelDecoder) Flush() ([]*RecvFrame, error) {
	var frames, err = c.dec.Flush()
	return c.wrap(frames), err
}

func (c *channelDecoder) wrap(frames []*Frame) []*RecvFrame {
	if len(frames) == 0 {
		return nil
	}

	var out = make([]*RecvFrame, len(frames))
	for i, f := range frames {
		out[i] = &RecvFrame{Channel: c.channel, Cmd: KISS_CMD_DATA_FRAME, Frame: f, Data: nil}
	}

	return out
}

const DEFAULT_QUEUE_SIZE = 16

const DEFAULT_READ_SIZE = 4096

type ReaderOption[T any] func(*FrameReader[T])

// WithQueueSize sets how many decoded items may wait for the consumer.
func WithQueueSize[T any](n int) ReaderOption[T] {
	return func(fr *FrameReader[T]) {
		if n >= 0 {
			fr.queueSize = n
		}
	}
}

// WithCallback hands each item to fn, in the reader goroutine, instead
// of queueing it.  Frames then delivers nothing.
func WithCallback[T any](fn func(T)) ReaderOption[T] {
	return func(fr *FrameReader[T]) {
		fr.callback = fn
	}
}

// WithErrorHandler replaces the default of logging decode errors as warnings.
// Decoding always continues afterwards.
func WithErrorHandler[T any](fn func(error)) ReaderOption[T] {
	return func(fr *FrameReader[T]) {
		fr.onError = fn
	}
}

// WithReadSize sets the largest chunk read at once.
func WithReadSize[T any](n int) ReaderOption[T] {
	return func(fr *FrameReader[T]) {
		if n > 0 {
			fr.readSize = n
		}
	}
}

// FrameReader feeds everything read from r through a decoder.
type FrameReader[T any] struct {
	r   io.Reader
	dec ChunkDecoder[T]

	queueSize int
	readSize  int
	callback  func(T)
	onError   func(error)

	frames chan T
}

func NewFrameReader[T any](r io.Reader, dec ChunkDecoder[T], opts ...ReaderOption[T]) *FrameReader[T] {
	var fr = &FrameReader[T]{
		r:         r,
		dec:       dec,
		queueSize: DEFAULT_QUEUE_SIZE,
		readSize:  DEFAULT_READ_SIZE,
		callback:  nil,
		onError: func(err error) {
			logger.Warn("decode", "err", err)
		},
		frames: nil,
	}

	for _, opt := range opts {
		opt(fr)
	}

	fr.frames = make(chan T, fr.queueSize)

	return fr
}

// Frames is closed when Run returns.
func (fr *FrameReader[T]) Frames() <-chan T {
	return fr.frames
}

type readResult struct {
	data []byte
	err  error
}

/*-------------------------------------------------------------------
 *
 * Name:        Run
 *
 * Purpose:     Read and decode until end of stream or cancellation.
 *
 * Returns:	nil at end of stream, after anything left in the decoder
 *		has been flushed out.
 *		ctx.Err() when cancelled.
 *		Otherwise the read error.
 *
 * Description:	A blocked Read can't be interrupted from here.  Close the
 *		underlying connection or file to be sure the read goroutine
 *		goes away after cancellation.
 *
 *--------------------------------------------------------------------*/

func (fr *FrameReader[T]) Run(ctx context.Context) error {
	defer close(fr.frames)

	var results = make(chan readResult)
	go fr.readLoop(ctx, results)

	for {
		var res readResult

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res = <-results:
		}

		if len(res.data) > 0 {
			var items, decodeErr = fr.dec.Update(res.data)
			if err := fr.deliver(ctx, items, decodeErr); err != nil {
				return err
			}
		}

		if res.err == nil {
			continue
		}

		if errors.Is(res.err, io.EOF) {
			var items, decodeErr = fr.dec.Flush()
			return fr.deliver(ctx, items, decodeErr)
		}

		return fmt.Errorf("read: %w", res.err)
	}
}

func (fr *FrameReader[T]) readLoop(ctx context.Context, results chan<- readResult) {
	for {
		var buf = make([]byte, fr.readSize)
		var n, err = fr.r.Read(buf)

		select {
		case results <- readResult{data: buf[:n], err: err}:
		case <-ctx.Done():
			return
		}

		if err != nil {
			return
		}
	}
}

func (fr *FrameReader[T]) deliver(ctx context.Context, items []T, decodeErr error) error {
	if decodeErr != nil {
		fr.onError(decodeErr)
	}

	for _, item := range items {
		if fr.callback != nil {
			fr.callback(item)
			continue
		}

		select {
		case fr.frames <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

/*-------------------------------------------------------------------
 *
 * Name:        ReadFrames
 *
 * Purpose:     Collect decoded items while Run is going.
 *
 * Inputs:	n	- Stop after this many.  Negative means until
 *			  the stream ends.
 *
 *--------------------------------------------------------------------*/

func (fr *FrameReader[T]) ReadFrames(ctx context.Context, n int) ([]T, error) {
	var out []T

	for n < 0 || len(out) < n {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case item, ok := <-fr.frames:
			if !ok {
				return out, nil
			}
			out = append(out, item)
		}
	}

	return out, nil
}
