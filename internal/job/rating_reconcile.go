package job

import (
	"context"
	"log"
	"time"

	"studyverse/internal/ledger"
	"studyverse/internal/repository"

	"gorm.io/gorm"
)

// RatingReconcileJob 定期按评分表重算课程/笔记上的冗余评分字段
//
// 正常情况下评分和冗余字段在同一事务里更新，不会不一致；
// 这里兜底的是手工改库、评分行被清理等情况。
type RatingReconcileJob struct {
	ledger     *ledger.Ledger
	ratingRepo *repository.RatingRepository
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewRatingReconcileJob(db *gorm.DB, l *ledger.Ledger, interval time.Duration) *RatingReconcileJob {
	return &RatingReconcileJob{
		ledger:     l,
		ratingRepo: repository.NewRatingRepository(db),
		stopCh:     make(chan struct{}),
		interval:   interval,
		batchSize:  100,
	}
}

func (j *RatingReconcileJob) Start(ctx context.Context) {
	log.Println("[RatingReconcileJob] 评分对账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[RatingReconcileJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[RatingReconcileJob] 任务停止")
			return
		case <-ticker.C:
			for _, kind := range []ledger.ItemKind{ledger.KindCourse, ledger.KindNote} {
				j.reconcile(ctx, kind)
			}
		}
	}
}

func (j *RatingReconcileJob) Stop() {
	close(j.stopCh)
}

// reconcile 按 item_id 游标分批处理，返回重算的商品数
func (j *RatingReconcileJob) reconcile(ctx context.Context, kind ledger.ItemKind) int {
	var afterID int64
	refreshed := 0

	for {
		ids, err := j.ratingRepo.ListRatedItemIDs(ctx, string(kind), afterID, j.batchSize)
		if err != nil {
			log.Printf("[RatingReconcileJob] 查询已评分%s失败: %v", kind, err)
			return refreshed
		}

		for _, id := range ids {
			if _, err := j.ledger.RefreshRating(ctx, kind, id); err != nil {
				log.Printf("[RatingReconcileJob] 重算评分失败: %s=%d, err=%v", kind, id, err)
				continue
			}
			refreshed++
		}

		if len(ids) < j.batchSize {
			break
		}
		afterID = ids[len(ids)-1]
	}

	if refreshed > 0 {
		log.Printf("[RatingReconcileJob] 本次重算 %d 个%s的评分", refreshed, kind)
	}
	return refreshed
}
