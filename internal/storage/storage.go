package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/StartupScanner/internal/aggregator"
	"github.com/LJTian/StartupScanner/internal/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	latestDigestKey = "digest:latest"
	latestDigestTTL = 24 * time.Hour
)

// ErrNoDigest 还没有任何一次运行结果
var ErrNoDigest = errors.New("storage: no digest yet")

// SourceRecord 信号源配置，Name 即主键
type SourceRecord struct {
	ID      string `gorm:"primaryKey;size:128" json:"id"`
	Kind    string `gorm:"size:32;index" json:"kind"`
	Name    string `gorm:"size:128" json:"name"`
	URL     string `gorm:"size:1024" json:"url"`
	Enabled bool   `gorm:"index" json:"enabled"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SourceRecord) TableName() string { return "sources" }

type KeywordRecord struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Term    string `gorm:"size:128;uniqueIndex" json:"term"`
	Enabled bool   `gorm:"index" json:"enabled"`

	CreatedAt time.Time `json:"createdAt"`
}

func (KeywordRecord) TableName() string { return "keywords" }

// Startup 补全后的公司，ID 是目录 slug
type Startup struct {
	ID            string         `gorm:"primaryKey;size:128" json:"id"`
	Name          string         `gorm:"size:256" json:"name"`
	Website       string         `gorm:"size:1024" json:"website"`
	DirectoryURL  string         `gorm:"size:1024" json:"directoryUrl"`
	Batch         string         `gorm:"size:64;index" json:"batch"`
	Category      string         `gorm:"size:64;index" json:"category"`
	Summary       string         `gorm:"size:600" json:"summary"`
	Founders      datatypes.JSON `gorm:"type:jsonb" json:"founders"`
	FundingSignal string         `gorm:"size:128" json:"fundingSignal"`
	OrgSocialLink string         `gorm:"size:1024" json:"orgSocialLink"`
	Stage         string         `gorm:"size:32" json:"stage"`
	TeamSize      int            `json:"teamSize"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Digest 一次运行结果的快照，Payload 是完整的 Dataset JSON
type Digest struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	GeneratedAt      time.Time      `gorm:"index" json:"generatedAt"`
	StartupCount     int            `json:"startupCount"`
	BlogCount        int            `json:"blogCount"`
	FundraisingCount int            `json:"fundraisingCount"`
	HiringCount      int            `json:"hiringCount"`
	Payload          datatypes.JSON `gorm:"type:jsonb" json:"payload"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&SourceRecord{}, &KeywordRecord{}, &Startup{}, &Digest{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// EnsureSource 信号源不存在时创建；已存在的不改动，保留管理端改过的启用状态
func (s *Store) EnsureSource(src config.Source) error {
	rec := &SourceRecord{
		ID:      src.Name,
		Kind:    src.Kind,
		Name:    src.Name,
		URL:     src.URL,
		Enabled: src.Enabled,
	}
	return s.DB.Where("id = ?", src.Name).FirstOrCreate(rec).Error
}

func (s *Store) EnsureKeyword(kw config.Keyword) error {
	rec := &KeywordRecord{Term: kw.Term, Enabled: kw.Enabled}
	return s.DB.Where("term = ?", kw.Term).FirstOrCreate(rec).Error
}

func (s *Store) EnabledSources(ctx context.Context) ([]config.Source, error) {
	var recs []SourceRecord
	if err := s.DB.WithContext(ctx).Where("enabled = ?", true).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]config.Source, 0, len(recs))
	for _, r := range recs {
		out = append(out, config.Source{Kind: r.Kind, Name: r.Name, URL: r.URL, Enabled: r.Enabled})
	}
	return out, nil
}

func (s *Store) EnabledKeywords(ctx context.Context) ([]config.Keyword, error) {
	var recs []KeywordRecord
	if err := s.DB.WithContext(ctx).Where("enabled = ?", true).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]config.Keyword, 0, len(recs))
	for _, r := range recs {
		out = append(out, config.Keyword{Term: r.Term, Enabled: r.Enabled})
	}
	return out, nil
}

// SaveStartups 以 slug 为幂等键写入，已存在时刷新可变字段
func (s *Store) SaveStartups(ctx context.Context, entries []aggregator.EnrichedEntry) error {
	for _, e := range entries {
		row, err := toStartup(e)
		if err != nil {
			return fmt.Errorf("storage: startup %s: %w", e.Slug, err)
		}
		err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "website", "summary", "category", "founders",
				"funding_signal", "org_social_link", "team_size", "updated_at",
			}),
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("storage: startup %s: %w", e.Slug, err)
		}
	}
	return nil
}

func toStartup(e aggregator.EnrichedEntry) (*Startup, error) {
	founders, err := json.Marshal(e.Founders)
	if err != nil {
		return nil, err
	}
	return &Startup{
		ID:            e.Slug,
		Name:          toValidUTF8(e.Name),
		Website:       e.Website,
		DirectoryURL:  e.DirectoryURL,
		Batch:         e.BatchLabel,
		Category:      e.Category,
		Summary:       truncateRunesDB(toValidUTF8(e.OneLiner), 600),
		Founders:      datatypes.JSON(founders),
		FundingSignal: truncateRunesDB(e.FundingSignal, 128),
		OrgSocialLink: e.OrgSocialLink,
		Stage:         e.Stage,
		TeamSize:      e.TeamSize,
	}, nil
}

func toDigest(ds *aggregator.Dataset) (*Digest, error) {
	payload, err := json.Marshal(ds)
	if err != nil {
		return nil, err
	}
	return &Digest{
		ID:               ds.RunID,
		GeneratedAt:      ds.GeneratedAt,
		StartupCount:     len(ds.Entries),
		BlogCount:        len(ds.BlogPosts),
		FundraisingCount: len(ds.FundraisingNews),
		HiringCount:      len(ds.HiringNews),
		Payload:          datatypes.JSON(payload),
	}, nil
}

// SaveDigest 写入快照表，并把最新一份放进 Redis
func (s *Store) SaveDigest(ctx context.Context, ds *aggregator.Dataset) error {
	d, err := toDigest(ds)
	if err != nil {
		return fmt.Errorf("storage: encode digest: %w", err)
	}
	if err := s.DB.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("storage: save digest: %w", err)
	}
	if s.Redis != nil {
		if err := s.Redis.Set(ctx, latestDigestKey, []byte(d.Payload), latestDigestTTL).Err(); err != nil {
			log.Printf("warn: cache latest digest: %v", err)
		}
	}
	return nil
}

// LatestDigest Redis 优先，未命中时回落到数据库
func (s *Store) LatestDigest(ctx context.Context) (*aggregator.Dataset, error) {
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, latestDigestKey).Bytes(); err == nil {
			var cached aggregator.Dataset
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var d Digest
	err := s.DB.WithContext(ctx).Order("generated_at DESC").First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoDigest
	}
	if err != nil {
		return nil, err
	}

	var ds aggregator.Dataset
	if err := json.Unmarshal(d.Payload, &ds); err != nil {
		return nil, fmt.Errorf("storage: decode digest %s: %w", d.ID, err)
	}
	return &ds, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断，确保不超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
