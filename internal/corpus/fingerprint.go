package corpus

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"

	"ragqa/internal/domain"
)

// Fingerprint identifies the index Build would produce for these inputs: the
// encoder identity and the first min(sampleSize, len(rows)) rows. Batch size
// and worker count are excluded because they do not change the result.
func Fingerprint(rows []domain.CorpusEntry, sampleSize int, encoderName string) string {
	n := max(min(sampleSize, len(rows)), 0)
	h := sha1.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(encoderName)
	write(strconv.Itoa(n))
	for _, row := range rows[:n] {
		write(row.Question)
		write(row.Answer)
	}
	return hex.EncodeToString(h.Sum(nil))
}
