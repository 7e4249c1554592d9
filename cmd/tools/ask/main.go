package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-council/backend/internal/app"
	"github.com/zhouzirui/z-council/backend/internal/config"
	"github.com/zhouzirui/z-council/backend/internal/service/council"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	coordinator := flag.String("coordinator", cfg.Council.DefaultCoordinator, "coordinator id，例如 judge、judge-parallel")
	question := flag.String("q", "", "要提交给议会的问题")
	session := flag.String("session", "", "记忆使用的 sessionID，留空则自动生成")
	timeout := flag.Duration("timeout", cfg.Council.Timeout, "整体超时时间")
	verbose := flag.Bool("v", false, "逐条打印协议事件")
	asJSON := flag.Bool("json", false, "以 JSON 输出完整 verdict")

	flag.Parse()

	if strings.TrimSpace(*question) == "" {
		flag.Usage()
		log.Fatal("请通过 -q 指定问题")
	}

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg.Council.DefaultCoordinator = *coordinator
	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	if a.Council == nil {
		log.Fatal("LLM 未启用，请先配置 LLM_PROVIDER 及对应凭证")
	}

	var sink council.Sink
	if *verbose {
		sink = printEvent
	}

	verdict, err := a.Council.Run(ctx, *coordinator, sessionID, *question, sink)
	if err != nil {
		if verdict != nil {
			log.Printf("运行停在 %s，已使用 %d 次调用", verdict.State, verdict.Iterations)
		}
		log.Fatalf("议会运行失败: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(verdict); err != nil {
			log.Fatalf("输出失败: %v", err)
		}
		return
	}

	fmt.Println(verdict.Synthesis)
	fmt.Fprintf(os.Stderr, "\n[%s] run=%s iterations=%d\n", verdict.Coordinator, verdict.RunID, verdict.Iterations)
}

func printEvent(ev council.Event) {
	switch ev.Type {
	case council.EventState:
		fmt.Fprintf(os.Stderr, "== %s\n", ev.State)
	case council.EventPerspective:
		fmt.Fprintf(os.Stderr, "-- %s (#%d)\n%s\n\n", ev.Agent, ev.Iteration, ev.Content)
	case council.EventRating:
		fmt.Fprintf(os.Stderr, "-- %s rated %s %d/10: %s\n", ev.Agent, ev.Target, ev.Score, ev.Content)
	}
}
