package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/critic"
	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/internal/scrape"
	"github.com/neon-guide/guide-cli/internal/store"
	"github.com/neon-guide/guide-cli/pkg/kakao"
	"github.com/neon-guide/guide-cli/pkg/naver"
)

// PostReader fetches the readable text of one blog post.
type PostReader interface {
	ScrapePost(ctx context.Context, postURL string) (*scrape.BlogContent, error)
}

// Evaluator scores a restaurant from its blog review texts.
type Evaluator interface {
	Evaluate(ctx context.Context, name, keyword string, blogTexts []string) (*critic.Evaluation, error)
}

// Pipeline runs one discovery pass over a Plan.
type Pipeline struct {
	store     store.Store
	kakao     kakao.Client
	naver     naver.Client
	posts     PostReader
	evaluator Evaluator
	postDelay time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPostDelay sets the pause between blog post fetches.
func WithPostDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.postDelay = d }
}

// New creates a Pipeline with all dependencies.
func New(st store.Store, k kakao.Client, n naver.Client, posts PostReader, ev Evaluator, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     st,
		kakao:     k,
		naver:     n,
		posts:     posts,
		evaluator: ev,
		postDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the plan: search, dedupe, investigate, score, stage.
// Per-place failures are logged and skipped; only store failures abort
// the run.
func (p *Pipeline) Run(ctx context.Context, plan *Plan) (*model.DiscoveryRun, error) {
	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("discovery: starting run",
		zap.Int("neighborhoods", len(plan.Neighborhoods)),
		zap.Int("keywords", len(plan.Keywords)),
	)

	seen, err := p.store.SeenKakaoIDs(ctx)
	if err != nil {
		p.failRun(ctx, run.ID, err)
		return nil, eris.Wrap(err, "discovery: load seen places")
	}

	var stats model.RunStats
	for _, hood := range plan.Neighborhoods {
		for _, keyword := range plan.Keywords {
			if err := ctx.Err(); err != nil {
				p.failRun(ctx, run.ID, err)
				return nil, eris.Wrap(err, "discovery: run cancelled")
			}

			docs, err := p.search(ctx, hood, keyword, plan.MaxPerSearch)
			if err != nil {
				log.Warn("discovery: search failed",
					zap.String("neighborhood", hood),
					zap.String("keyword", keyword),
					zap.Error(err),
				)
				continue
			}
			stats.Searches++

			for _, doc := range docs {
				if seen[doc.ID] {
					stats.Skipped++
					continue
				}
				seen[doc.ID] = true
				stats.Places++

				texts := p.collectPosts(ctx, hood, doc.PlaceName, plan.MaxPosts)
				if len(texts) == 0 {
					log.Info("discovery: no readable reviews",
						zap.String("place", doc.PlaceName))
					stats.Skipped++
					continue
				}
				stats.Investigated++

				eval, err := p.evaluator.Evaluate(ctx, doc.PlaceName, keyword, texts)
				if err != nil {
					log.Warn("discovery: evaluation failed",
						zap.String("place", doc.PlaceName),
						zap.Error(err),
					)
					continue
				}

				find := &model.Find{
					RunID:         run.ID,
					Neighborhood:  hood,
					Keyword:       keyword,
					Name:          doc.PlaceName,
					Score:         eval.Score,
					AwardLevel:    eval.AwardLevel,
					Justification: eval.Justification,
					DescriptionEN: eval.DescriptionEN,
					DescriptionKO: eval.DescriptionKO,
					KakaoID:       doc.ID,
					KakaoURL:      doc.PlaceURL,
					Latitude:      doc.Y,
					Longitude:     doc.X,
				}
				if err := p.store.StageFind(ctx, find); err != nil {
					p.failRun(ctx, run.ID, err)
					return nil, eris.Wrapf(err, "discovery: stage %q", doc.PlaceName)
				}
				stats.Staged++
				log.Info("discovery: staged find",
					zap.String("place", doc.PlaceName),
					zap.Int("score", eval.Score),
					zap.String("award", eval.AwardLevel),
				)
			}
		}
	}

	if err := p.store.CompleteRun(ctx, run.ID, stats); err != nil {
		return nil, eris.Wrap(err, "discovery: complete run")
	}
	run.Status = model.RunStatusComplete
	run.Stats = stats
	log.Info("discovery: run complete",
		zap.Int("searches", stats.Searches),
		zap.Int("places", stats.Places),
		zap.Int("investigated", stats.Investigated),
		zap.Int("staged", stats.Staged),
		zap.Int("skipped", stats.Skipped),
	)
	return run, nil
}

// search pages through Kakao keyword results until the cap or the last
// page is reached.
func (p *Pipeline) search(ctx context.Context, hood, keyword string, limit int) ([]kakao.Document, error) {
	query := hood + " " + keyword
	var collected []kakao.Document
	for page := 1; len(collected) < limit; page++ {
		docs, end, err := p.kakao.SearchKeyword(ctx, query, page)
		if err != nil {
			return nil, err
		}
		collected = append(collected, docs...)
		if end || len(docs) == 0 {
			break
		}
	}
	if len(collected) > limit {
		collected = collected[:limit]
	}
	return collected, nil
}

// collectPosts searches Naver blogs for the place and scrapes up to
// maxPosts of them. Post-level failures are logged and skipped.
func (p *Pipeline) collectPosts(ctx context.Context, hood, name string, maxPosts int) []string {
	posts, err := p.naver.SearchBlogs(ctx, hood+" "+name)
	if err != nil {
		zap.L().Warn("discovery: blog search failed",
			zap.String("place", name), zap.Error(err))
		return nil
	}

	var texts []string
	for _, post := range posts {
		if len(texts) >= maxPosts {
			break
		}
		if !strings.Contains(post.Link, "blog.naver.com") {
			continue
		}
		if len(texts) > 0 {
			time.Sleep(p.postDelay)
		}
		content, err := p.posts.ScrapePost(ctx, post.Link)
		if err != nil {
			zap.L().Debug("discovery: post scrape failed",
				zap.String("url", post.Link), zap.Error(err))
			continue
		}
		if strings.TrimSpace(content.Text) == "" {
			continue
		}
		texts = append(texts, content.Text)
	}
	return texts
}

func (p *Pipeline) failRun(ctx context.Context, runID string, cause error) {
	if err := p.store.FailRun(ctx, runID, cause.Error()); err != nil {
		zap.L().Warn("discovery: failed to mark run failed",
			zap.String("run_id", runID), zap.Error(err))
	}
}
