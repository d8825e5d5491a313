package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/factory"
)

type options struct {
	count         int
	invalidRate   float64
	workers       int
	threshold     int
	rounds        int
	seed          int64
	seedProvided  bool
	withJSONCheck bool
}

var (
	benchUser = schemata.NewDefinition("user").
			Field("name", schemata.Text(), schemata.Required()).
			Field("email", schemata.Text(), schemata.With(schemata.OptionFormat, "email")).
			MustBuild()
	benchComment = schemata.NewDefinition("comment").
			Field("body", schemata.Text(), schemata.Required(), schemata.With(schemata.OptionMinLength, 1)).
			Field("score", schemata.Integer()).
			MustBuild()
	benchPost = schemata.NewDefinition("post").
			Field("title", schemata.Text(), schemata.Required(), schemata.With(schemata.OptionMaxLength, 120)).
			Field("likes", schemata.Integer(), schemata.Required(), schemata.With(schemata.OptionMinimum, 0)).
			Field("published_at", schemata.Scalar(schemata.KindUTCDatetime)).
			Field("status", schemata.Enum("draft", "published"), schemata.Default("draft")).
			Field("tags", schemata.ArrayOf(schemata.Text())).
			Field("author", schemata.Object(benchUser), schemata.Required()).
			Field("comments", schemata.ArrayOf(schemata.Object(benchComment))).
			MustBuild()
)

func main() {
	log.SetFlags(0)

	opts := parseFlags()
	if !opts.seedProvided {
		log.Printf("[info] Using random seed %d", opts.seed)
	}

	config := schemata.DefaultConfig()
	config.Batch.MaxParallelWorkers = opts.workers
	config.Batch.ParallelThreshold = opts.threshold
	config.Batch.MaxBatchSize = 0

	v, err := factory.NewValidator(benchPost, config)
	if err != nil {
		log.Fatalf("failed to create validator: %v", err)
	}

	random := rand.New(rand.NewSource(opts.seed))
	inputs := buildPosts(opts.count, opts.invalidRate, random)

	var parseOpts []schemata.ParseOption
	if opts.withJSONCheck {
		parseOpts = append(parseOpts, schemata.WithJSONValidation())
	}

	ctx := context.Background()
	sequential := measure(opts.rounds, func() (int, error) {
		return parseSequential(ctx, v, inputs, parseOpts)
	})
	batched := measure(opts.rounds, func() (int, error) {
		return parseBatch(ctx, v, inputs, parseOpts)
	})

	log.Println("[success] Validation benchmark complete:")
	log.Printf("  - documents: %d, json schema: %t, workers: %d", opts.count, opts.withJSONCheck, opts.workers)
	sequential.print("sequential Parse", opts.count)
	batched.print("ParseMany", opts.count)
}

type result struct {
	best    time.Duration
	total   time.Duration
	rounds  int
	invalid int
}

func (r result) print(label string, count int) {
	avg := r.total / time.Duration(r.rounds)
	perDoc := float64(r.best.Microseconds()) / float64(count)
	log.Printf("  - %s: best %s, avg %s, %.2fµs/doc, %d invalid", label, r.best, avg, perDoc, r.invalid)
}

func measure(rounds int, fn func() (int, error)) result {
	var r result
	for i := 0; i < rounds; i++ {
		start := time.Now()
		invalid, err := fn()
		elapsed := time.Since(start)
		if err != nil {
			log.Fatalf("benchmark round failed: %v", err)
		}
		if r.rounds == 0 || elapsed < r.best {
			r.best = elapsed
		}
		r.total += elapsed
		r.rounds++
		r.invalid = invalid
	}
	return r
}

func parseSequential(ctx context.Context, v schemata.Validator, inputs []any, opts []schemata.ParseOption) (int, error) {
	invalid := 0
	for _, input := range inputs {
		if _, err := v.Parse(ctx, input, opts...); err != nil {
			if !isInputError(err) {
				return 0, err
			}
			invalid++
		}
	}
	return invalid, nil
}

func parseBatch(ctx context.Context, v schemata.Validator, inputs []any, opts []schemata.ParseOption) (int, error) {
	_, err := v.ParseMany(ctx, inputs, opts...)
	var batchErr *schemata.BatchError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &batchErr):
		return len(batchErr.Failures), nil
	default:
		return 0, err
	}
}

func isInputError(err error) bool {
	var report *schemata.ErrorReport
	var violations *schemata.ViolationError
	return errors.As(err, &report) || errors.As(err, &violations)
}

func buildPosts(count int, invalidRate float64, random *rand.Rand) []any {
	statuses := []string{"draft", "published"}
	tags := []string{"go", "schema", "json", "validation", "news", "release"}

	posts := make([]any, count)
	for i := range posts {
		comments := make([]any, random.Intn(4))
		for j := range comments {
			comments[j] = map[string]any{
				"body":  fmt.Sprintf("comment %d on post %d", j, i),
				"score": random.Intn(10),
			}
		}
		postTags := make([]any, 1+random.Intn(3))
		for j := range postTags {
			postTags[j] = tags[random.Intn(len(tags))]
		}

		post := map[string]any{
			"title":        "Post " + strconv.Itoa(i),
			"likes":        random.Intn(5000),
			"published_at": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(random.Intn(365*24)) * time.Hour).Format(time.RFC3339),
			"status":       statuses[random.Intn(len(statuses))],
			"tags":         postTags,
			"author": map[string]any{
				"name":  fmt.Sprintf("author-%d", random.Intn(100)),
				"email": fmt.Sprintf("author%d@example.com", random.Intn(100)),
			},
			"comments": comments,
		}

		if random.Float64() < invalidRate {
			switch random.Intn(3) {
			case 0:
				delete(post, "title")
			case 1:
				post["likes"] = "many"
			default:
				post["author"] = map[string]any{"email": "anonymous@example.com"}
			}
		}
		posts[i] = post
	}
	return posts
}

func parseFlags() options {
	var opts options

	flag.IntVar(&opts.count, "count", getenvDefaultInt("BENCH_COUNT", 10000), "number of documents to validate")
	flag.Float64Var(&opts.invalidRate, "invalid-rate", 0.05, "fraction of documents made invalid")
	flag.IntVar(&opts.workers, "workers", getenvDefaultInt("BENCH_WORKERS", 4), "ParseMany worker count")
	flag.IntVar(&opts.threshold, "parallel-threshold", 64, "batch size at which ParseMany goes parallel")
	flag.IntVar(&opts.rounds, "rounds", 3, "number of timed rounds per mode")
	flag.BoolVar(&opts.withJSONCheck, "json-schema", false, "also validate against the generated JSON Schema")
	seed := flag.Int64("seed", 0, "random seed (0 uses current time)")

	flag.Parse()

	if *seed == 0 {
		opts.seed = time.Now().UnixNano()
		opts.seedProvided = false
	} else {
		opts.seed = *seed
		opts.seedProvided = true
	}

	if opts.count <= 0 {
		log.Fatalf("count must be positive")
	}
	if opts.rounds <= 0 {
		opts.rounds = 1
	}
	if opts.workers <= 0 {
		opts.workers = 1
	}

	return opts
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
