package health_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/similarity/health"
	"github.com/jonwraymond/similarity/resilience"
)

func ExampleOverall() {
	agg := health.NewAggregator(time.Second)
	agg.Register(health.NewCheckerFunc("cache", func(context.Context) health.Result {
		return health.Healthy("cache reachable")
	}))
	agg.Register(health.NewCheckerFunc("breakers", func(context.Context) health.Result {
		return health.Degraded("getDetail=open")
	}))

	fmt.Println(health.Overall(agg.CheckAll(context.Background())))
	// Output: degraded
}

func ExampleBreakerChecker_Check() {
	set := resilience.NewBreakerSet(resilience.CircuitBreakerConfig{}, resilience.ScopeOperation)
	set.For("getDetail")

	r := health.NewBreakerChecker(set).Check(context.Background())
	fmt.Println(r.Status, r.Message)
	// Output: healthy 1 breakers closed
}
