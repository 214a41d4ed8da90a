package votesource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SlpAus/vote-slots-backend/internal/platform/config"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// responseRange 是表单回复工作表中包含时间戳的列。
// 第一行是表头，不计入票数。
const responseRange = "A:A"

// timestampLayouts 是表格中本地时间戳的候选格式。
// Google表单的回复时间戳格式取决于表格的区域设置。
var timestampLayouts = []string{
	"02.01.2006 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// SheetsSource 是基于Google表格的投票数据源实现。
// 内部的API客户端是进程级单例：首次使用时构建一次，之后不再重建。
// 构建完成后客户端自身无状态（仅持有凭据），因此可以被并发使用。
type SheetsSource struct {
	cfg config.VoteSourceConfig
	loc *time.Location

	once    sync.Once
	svc     *sheets.Service
	initErr error
}

// NewSheetsSource 创建一个新的表格数据源。
// 此时不会建立任何连接，凭据校验推迟到首次使用。
func NewSheetsSource(cfg config.VoteSourceConfig) *SheetsSource {
	offset := cfg.UTCOffsetMinutes
	return &SheetsSource{
		cfg: cfg,
		loc: time.FixedZone("votesource", offset*60),
	}
}

// service 返回惰性初始化的Sheets客户端。
func (s *SheetsSource) service(ctx context.Context) (*sheets.Service, error) {
	s.once.Do(func() {
		if s.cfg.SpreadsheetID == "" || s.cfg.ClientEmail == "" || s.cfg.PrivateKey == "" {
			s.initErr = ErrNotConfigured
			return
		}

		conf := &jwt.Config{
			Email: s.cfg.ClientEmail,
			// 环境变量中的私钥通常携带字面量"\n"，在这里还原
			PrivateKey: []byte(strings.ReplaceAll(s.cfg.PrivateKey, `\n`, "\n")),
			Scopes:     []string{sheets.SpreadsheetsReadonlyScope},
			TokenURL:   google.JWTTokenURL,
		}

		svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(context.Background())))
		if err != nil {
			s.initErr = fmt.Errorf("无法创建Sheets客户端: %w", err)
			return
		}
		s.svc = svc
	})
	return s.svc, s.initErr
}

// fetchRows 从表格中读取时间戳列的全部行。
func (s *SheetsSource) fetchRows(ctx context.Context) ([][]interface{}, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, responseRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("读取表格数据失败: %w", err)
	}
	return resp.Values, nil
}

// Count 返回当前的总票数（去掉表头行）。
func (s *SheetsSource) Count(ctx context.Context) (int, error) {
	rows, err := s.fetchRows(ctx)
	if err != nil {
		return 0, err
	}
	return countFromRows(rows), nil
}

// Timestamps 返回每条投票的unix秒级时间戳，升序排列。
func (s *SheetsSource) Timestamps(ctx context.Context) ([]int64, error) {
	rows, err := s.fetchRows(ctx)
	if err != nil {
		return nil, err
	}

	cells := make([]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // 表头或空行
		}
		cells = append(cells, fmt.Sprint(row[0]))
	}
	return parseTimestamps(cells, s.loc), nil
}

// countFromRows 计算表格行对应的票数。
func countFromRows(rows [][]interface{}) int {
	if len(rows) <= 1 {
		return 0
	}
	return len(rows) - 1
}

// parseTimestamps 按配置的时区解析本地时间戳并升序排序。
// 无法解析的单元格会被跳过，数据源被视为可信。
func parseTimestamps(cells []string, loc *time.Location) []int64 {
	result := make([]int64, 0, len(cells))
	for _, cell := range cells {
		t, ok := parseLocalTime(cell, loc)
		if !ok {
			fmt.Printf("警告: 无法解析投票时间戳: %q\n", cell)
			continue
		}
		result = append(result, t.Unix())
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func parseLocalTime(cell string, loc *time.Location) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, cell, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
