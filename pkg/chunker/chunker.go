package chunker

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ragdesk/ragdesk/pkg/errors"
	"github.com/ragdesk/ragdesk/pkg/i18n"
	"github.com/ragdesk/ragdesk/pkg/types"
)

// 分隔符从粗到细，优先按段落切，切不动再降级，
// 最后一个空分隔符表示按字符硬切
var defaultSeparators = []string{"\n\n", "\n", "。", ".", " ", ""}

type Splitter struct {
	size       int
	overlap    int
	separators []string
}

func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, errors.New("chunker.New.size", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if overlap < 0 || overlap >= size {
		return nil, errors.New("chunker.New.overlap", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	return &Splitter{
		size:       size,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

// Chunk 将摄取文档切成带稳定 ID 的切片序列。
// 相同文档与相同参数必定产出相同的切片与 ID，向量索引的幂等提交依赖这一点。
func Chunk(doc types.IngestDocument, size, overlap int) ([]types.Chunk, error) {
	splitter, err := New(size, overlap)
	if err != nil {
		return nil, errors.Trace("chunker.Chunk", err)
	}

	pieces := splitter.Split(doc.Content)
	chunks := make([]types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		id := types.ChunkID(doc.SourceID, i)
		meta := doc.Metadata.Clone()
		meta["chunk_id"] = id
		meta["chunk_index"] = strconv.Itoa(i)
		meta["original_id"] = doc.SourceID
		chunks = append(chunks, types.Chunk{
			ID:         id,
			Index:      i,
			OriginalID: doc.SourceID,
			Content:    piece,
			Metadata:   meta,
		})
	}
	return chunks, nil
}

// Split 切分正文。短于 size 的文本整体作为唯一切片返回。
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= s.size {
		return []string{text}
	}
	return s.splitText(text, s.separators)
}

func (s *Splitter) splitText(text string, seps []string) []string {
	sep := ""
	var rest []string
	for i, sp := range seps {
		if sp == "" {
			break
		}
		if strings.Contains(text, sp) {
			sep = sp
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.splitRunes(text)
	}

	var (
		final []string
		good  []string
	)
	for _, piece := range splitKeepSeparator(text, sep) {
		if runeLen(piece) <= s.size {
			good = append(good, piece)
			continue
		}
		// 当前分隔符切不动的大块，先结算已积累的小块，再降级处理
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		final = append(final, s.splitText(piece, rest)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge 把小块拼到不超过 size 的窗口中，窗口滑动时保留不超过 overlap 的尾部
func (s *Splitter) merge(pieces []string) []string {
	var (
		out    []string
		window []string
		total  int
	)
	for _, p := range pieces {
		l := runeLen(p)
		if total+l > s.size && total > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				out = append(out, chunk)
			}
			for len(window) > 0 && (total > s.overlap || total+l > s.size) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += l
	}
	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

func (s *Splitter) splitRunes(text string) []string {
	runes := []rune(text)
	step := s.size - s.overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func splitKeepSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	var out []string
	for i, p := range parts {
		if i < len(parts)-1 {
			p = p + sep
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
