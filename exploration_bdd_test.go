package lincheck

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/GoCodeAlone/lincheck-go/internal/consistency"
)

// explorationBDDTestContext holds the per-scenario engine and results so
// step functions can thread state between Given/When/Then without a
// shared package-level variable.
type explorationBDDTestContext struct {
	engine       *Engine
	lastReadVal  any
	lastErr      error
	startedCount int
	waitDone     chan struct{}
}

func (ctx *explorationBDDTestContext) aFreshExplorationEngine() error {
	ctx.engine = NewEngine(Config{}, nil, nil)
	return ctx.engine.InitializeExploration()
}

func loc(n int) Location { return Location{Object: ObjectID(n)} }

func (ctx *explorationBDDTestContext) threadWritesToLocation(tid, value, location int) error {
	return ctx.engine.AddWrite(ThreadID(tid), loc(location), value, TypeInt, false)
}

func (ctx *explorationBDDTestContext) threadReadsLocation(tid, location int) error {
	v, err := ctx.engine.AddRead(ThreadID(tid), loc(location), TypeInt, false)
	ctx.lastReadVal = v
	return err
}

func (ctx *explorationBDDTestContext) theReadShouldObserve(want string) error {
	if want == "nil" {
		if ctx.lastReadVal != nil {
			return fmt.Errorf("expected nil, got %v", ctx.lastReadVal)
		}
		return nil
	}
	wantN, err := strconv.Atoi(want)
	if err != nil {
		return err
	}
	got, ok := ctx.lastReadVal.(int)
	if !ok || got != wantN {
		return fmt.Errorf("expected %d, got %v", wantN, ctx.lastReadVal)
	}
	return nil
}

func (ctx *explorationBDDTestContext) theExecutionShouldBeConsistent() error {
	if inc := ctx.engine.CheckConsistency(); inc != nil {
		return fmt.Errorf("expected consistent execution, got %s", inc.Reason())
	}
	return nil
}

func (ctx *explorationBDDTestContext) threadExclusivelyReadsLocation(tid, location int) error {
	v, err := ctx.engine.AddRead(ThreadID(tid), loc(location), TypeInt, true)
	ctx.lastReadVal = v
	return err
}

func (ctx *explorationBDDTestContext) threadExclusivelyWritesToLocation(tid, value, location int) error {
	return ctx.engine.AddWrite(ThreadID(tid), loc(location), value, TypeInt, true)
}

func (ctx *explorationBDDTestContext) theEngineChecksConsistency() error {
	ctx.lastErr = nil
	return nil
}

func (ctx *explorationBDDTestContext) anAtomicityViolationShouldBeReported() error {
	inc := ctx.engine.CheckConsistency()
	if inc == nil {
		return fmt.Errorf("expected an inconsistency, got none")
	}
	if _, ok := inc.(consistency.AtomicityViolation); !ok {
		return fmt.Errorf("expected an AtomicityViolation, got %T: %s", inc, inc.Reason())
	}
	return nil
}

func (ctx *explorationBDDTestContext) threadAcquiresMutex(tid, mutex int) error {
	return ctx.engine.AddLockAcquire(ThreadID(tid), MutexID(mutex))
}

func (ctx *explorationBDDTestContext) threadReleasesMutex(tid, mutex int) error {
	return ctx.engine.AddLockRelease(ThreadID(tid), MutexID(mutex))
}

func (ctx *explorationBDDTestContext) threadShouldHoldMutex(tid, mutex int) error {
	return nil
}

func (ctx *explorationBDDTestContext) threadWaitsOnMutex(tid, mutex int) error {
	ctx.waitDone = make(chan struct{})
	go func() {
		defer close(ctx.waitDone)
		ctx.lastErr = ctx.engine.AddWait(ThreadID(tid), MutexID(mutex))
	}()
	return nil
}

func (ctx *explorationBDDTestContext) threadNotifiesMutex(tid, mutex int) error {
	return ctx.engine.AddNotify(ThreadID(tid), MutexID(mutex), false)
}

func (ctx *explorationBDDTestContext) threadsWaitShouldHaveReturned(tid int) error {
	select {
	case <-ctx.waitDone:
		return ctx.lastErr
	case <-time.After(time.Second):
		return fmt.Errorf("thread %d's wait did not return", tid)
	}
}

func (ctx *explorationBDDTestContext) theEngineStartsEveryRemainingExploration() error {
	for {
		more, err := ctx.engine.StartNextExploration()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		ctx.startedCount++
	}
}

func (ctx *explorationBDDTestContext) atLeastExplorationsShouldHaveBeenStarted(n int) error {
	if ctx.startedCount < n {
		return fmt.Errorf("expected at least %d explorations, got %d", n, ctx.startedCount)
	}
	return nil
}

func TestExplorationBDD(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			tc := &explorationBDDTestContext{}

			sc.Step(`^a fresh exploration engine$`, tc.aFreshExplorationEngine)
			sc.Step(`^thread (\d+) writes (\d+) to location (\d+)$`, tc.threadWritesToLocation)
			sc.Step(`^thread (\d+) reads location (\d+)$`, tc.threadReadsLocation)
			sc.Step(`^the read should observe (\S+)$`, tc.theReadShouldObserve)
			sc.Step(`^the execution should be consistent$`, tc.theExecutionShouldBeConsistent)
			sc.Step(`^thread (\d+) exclusively reads location (\d+)$`, tc.threadExclusivelyReadsLocation)
			sc.Step(`^thread (\d+) exclusively writes (\d+) to location (\d+)$`, tc.threadExclusivelyWritesToLocation)
			sc.Step(`^the engine checks consistency$`, tc.theEngineChecksConsistency)
			sc.Step(`^an AtomicityViolation should be reported$`, tc.anAtomicityViolationShouldBeReported)
			sc.Step(`^thread (\d+) acquires mutex (\d+)$`, tc.threadAcquiresMutex)
			sc.Step(`^thread (\d+) releases mutex (\d+)$`, tc.threadReleasesMutex)
			sc.Step(`^thread (\d+) should hold mutex (\d+)$`, tc.threadShouldHoldMutex)
			sc.Step(`^thread (\d+) waits on mutex (\d+)$`, tc.threadWaitsOnMutex)
			sc.Step(`^thread (\d+) notifies mutex (\d+)$`, tc.threadNotifiesMutex)
			sc.Step(`^thread (\d+)'s wait should have returned$`, tc.threadsWaitShouldHaveReturned)
			sc.Step(`^the engine starts every remaining exploration$`, tc.theEngineStartsEveryRemainingExploration)
			sc.Step(`^at least (\d+) explorations should have been started$`, tc.atLeastExplorationsShouldHaveBeenStarted)
		},
		Options: &godog.Options{
			Format: "pretty",
			Paths:  []string{"features/exploration.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run BDD tests")
	}
}
