package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/config"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/repository"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/seed"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var plantID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机主管, 2: 插入随机司机, 3: 插入演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&plantID, "plant-id", 0, "随机插入司机的厂区 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的主管数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomSupervisor(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机主管", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入主管", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入主管成功", slog.Int("count", n-cnt))
		}
	case 2:
		if plantID <= 0 {
			slog.Error("请输入合法的厂区 ID")
			return
		}
		if n <= 0 {
			slog.Error("请输入合法的司机数量")
			return
		}

		// 确认厂区存在
		if _, err := repo.GetPlantByID(plantID); err != nil {
			slog.Error("无法获取厂区", slog.String("error", err.Error()))
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			driver := utils.GenerateRandomDriver(plantID)
			if err := repo.CreateDriver(driver); err != nil {
				slog.Error("无法插入司机", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入司机成功", slog.Int("count", n-cnt))
	case 3:
		seed.SeedDemoData(cfg, repo, 3, 5)
	default:
		slog.Error("指定的操作非法")
	}
}
