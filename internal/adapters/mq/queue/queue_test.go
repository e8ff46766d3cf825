package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/adapters/mq/queue"
	"github.com/steamcompass/compass/internal/domain/model"
)

func job(id string) queue.Job {
	return model.SyncJob{ID: id, UserID: "user-" + id, Status: model.JobQueued}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When jobs are enqueued up to capacity", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeNil)
			So(q.Enqueue(ctx, job("2")), ShouldBeNil)

			Convey("Then the next enqueue reports full", func() {
				So(errors.Is(q.Enqueue(ctx, job("3")), queue.ErrFull), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then jobs are dequeued in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).ID, ShouldEqual, "1")
				So((<-ch).ID, ShouldEqual, "2")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job("1")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails and pending jobs drain before the channel closes", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, job("2")), queue.ErrClosed), ShouldBeTrue)

				ch := q.Dequeue(ctx)
				first, ok := <-ch
				So(ok, ShouldBeTrue)
				So(first.ID, ShouldEqual, "1")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails with the context error", func() {
				So(errors.Is(q.Enqueue(cctx, job("1")), context.Canceled), ShouldBeTrue)
			})

			Convey("Then the dequeue channel closes", func() {
				_, ok := <-q.Dequeue(cctx)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryQueueConcurrent(t *testing.T) {
	Convey("Given concurrent producers and one consumer", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))

		var wg sync.WaitGroup
		var accepted atomic.Int64
		for p := 0; p < 10; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if q.Enqueue(ctx, job(fmt.Sprintf("%d-%d", p, i))) == nil {
						accepted.Add(1)
					}
				}
			}(p)
		}
		wg.Wait()
		_ = q.Close()

		received := 0
		for range q.Dequeue(ctx) {
			received++
		}

		So(accepted.Load(), ShouldEqual, 500)
		So(received, ShouldEqual, 500)
	})
}

func TestInMemoryQueueDrain(t *testing.T) {
	Convey("Given a queue holding three jobs", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		for _, id := range []string{"1", "2", "3"} {
			So(q.Enqueue(ctx, job(id)), ShouldBeNil)
		}

		Convey("When the queue is still open", func() {
			Convey("Then nothing is drained", func() {
				So(q.Drain(ctx), ShouldBeEmpty)
				So(q.Len(ctx), ShouldEqual, 3)
			})
		})

		Convey("When a reader took a job but stopped before delivering it", func() {
			rctx, cancel := context.WithCancel(ctx)
			_ = q.Dequeue(rctx)
			deadline := time.Now().Add(2 * time.Second)
			for q.Len(ctx) != 2 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			So(q.Len(ctx), ShouldEqual, 2)
			So(q.Close(), ShouldBeNil)
			cancel()

			dctx, dcancel := context.WithTimeout(ctx, 2*time.Second)
			defer dcancel()
			left := q.Drain(dctx)

			Convey("Then the held job comes back ahead of the buffered ones", func() {
				So(left, ShouldHaveLength, 3)
				So(left[0].ID, ShouldEqual, "1")
				So(left[1].ID, ShouldEqual, "2")
				So(left[2].ID, ShouldEqual, "3")
				So(q.Drain(dctx), ShouldBeEmpty)
			})
		})

		Convey("When a consumer received one job before the close", func() {
			rctx, cancel := context.WithCancel(ctx)
			first := <-q.Dequeue(rctx)
			So(q.Close(), ShouldBeNil)
			cancel()

			dctx, dcancel := context.WithTimeout(ctx, 2*time.Second)
			defer dcancel()
			left := q.Drain(dctx)

			Convey("Then only the undelivered jobs are drained", func() {
				So(first.ID, ShouldEqual, "1")
				ids := make([]string, 0, len(left))
				for _, j := range left {
					ids = append(ids, j.ID)
				}
				So(ids, ShouldResemble, []string{"2", "3"})
			})
		})
	})
}
