package rentals

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

const exportDateFormat = "2006-01-02 15:04:05"

// ExportCSV: 全貸出履歴をCSVで返す。
// Excelでそのまま開けるよう cp932 (Shift_JIS) で出力する。
func (s *Service) ExportCSV(ctx context.Context, ident auth.Identity) ([]byte, error) {
	if !ident.IsAdmin {
		return nil, apierr.ErrForbidden("admin only")
	}

	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	tw := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	w := csv.NewWriter(tw)

	header := []string{"貸出ID", "ISBN", "書名", "利用者ID", "貸出日", "返却期限", "返却日"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range rows {
		title := unknownBook
		if r.Title.Valid {
			title = r.Title.String
		}
		returned := ""
		if r.ReturnedDate.Valid {
			returned = r.ReturnedDate.Time.Format(exportDateFormat)
		}
		rec := []string{
			strconv.FormatInt(r.RentalID, 10),
			strconv.FormatUint(r.BookISBN, 10),
			title,
			strconv.FormatInt(r.UserID, 10),
			r.CheckoutDate.Format(exportDateFormat),
			r.DueDate.Format(exportDateFormat),
			returned,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// エクスポートのファイル名（ダウンロード時のヘッダ用）
func ExportFilename(t time.Time) string {
	return "rental_log_" + t.Format("20060102") + ".csv"
}
