package seed

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/config"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/repository"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/utils"
)

var plantNames = []string{"东区热电厂", "西区水泥厂", "南郊物流园", "江北化工厂", "滨海焚烧厂"}

// SeedDemoData 插入一套完整的演示数据：
// 厂区、主管（含授权和审批配置）、司机、车辆、派车记录和少量考勤记录。
func SeedDemoData(cfg *config.Config, repo *repository.Repository, plantCount int, driversPerPlant int) {
	hr, err := utils.GenerateRandomSupervisor(cfg.Seed.User.Password, cfg.Email.UserDomain)
	if err != nil {
		slog.Error("生成人事用户失败", "error", err)
		return
	}
	hr.Role = domain.RoleHR
	if err := repo.CreateUser(hr); err != nil {
		slog.Error("插入人事用户失败", "error", err)
		return
	}

	for i := 0; i < plantCount; i++ {
		// 每个厂区一个主要主管
		supervisor, err := utils.GenerateRandomSupervisor(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("生成主管失败", "error", err)
			continue
		}
		if err := repo.CreateUser(supervisor); err != nil {
			slog.Error("插入主管失败", "error", err)
			continue
		}

		plant := &domain.Plant{
			Name:                plantNames[i%len(plantNames)],
			PrimarySupervisorID: &supervisor.ID,
		}
		if err := repo.CreatePlant(plant); err != nil {
			slog.Error("插入厂区失败", "error", err)
			continue
		}

		if err := repo.CreateSupervisorPlantGrant(&domain.SupervisorPlantGrant{
			UserID:  supervisor.ID,
			PlantID: plant.ID,
		}); err != nil {
			slog.Error("插入厂区授权失败", "error", err)
		}

		// 没有司机档案的主管自己打卡时由人事审批
		if err := repo.CreateWorkflowMapping(&domain.ApprovalWorkflowMapping{
			SubjectKind:    domain.SubjectSupervisorWithoutDriver,
			SubjectUserID:  supervisor.ID,
			ApproverUserID: hr.ID,
			ApproverRole:   domain.RoleHR,
		}); err != nil {
			slog.Error("插入审批配置失败", "error", err)
		}

		for j := 0; j < driversPerPlant; j++ {
			driver := utils.GenerateRandomDriver(plant.ID)
			if err := repo.CreateDriver(driver); err != nil {
				slog.Error("插入司机失败", "error", err)
				continue
			}

			vehicle := &domain.Vehicle{
				PlantID:     plant.ID,
				PlateNumber: utils.GenerateRandomPlateNumber(),
			}
			if err := repo.CreateVehicle(vehicle); err != nil {
				slog.Error("插入车辆失败", "error", err)
				continue
			}

			if err := repo.CreateAssignment(&domain.Assignment{
				DriverID:  driver.ID,
				VehicleID: &vehicle.ID,
				StartedAt: time.Now().Add(-time.Hour * 24 * 7),
			}); err != nil {
				slog.Error("插入派车记录失败", "error", err)
				continue
			}

			// 最近几天的已闭合考勤记录，便于演示看板和审批列表。
			// 同一主体同时只允许一条打开的记录，所以逐天创建后立即闭合。
			identity := domain.DriverIdentity(driver.ID)
			for d := rand.Intn(3) + 1; d > 0; d-- {
				inTime := time.Now().Add(-time.Hour * 24 * time.Duration(d)).Truncate(time.Hour)
				outTime := inTime.Add(time.Hour * time.Duration(rand.Intn(4)+8))

				rec := &domain.AttendanceRecord{
					Identity:       identity,
					PlantID:        plant.ID,
					VehicleID:      &vehicle.ID,
					InTime:         inTime,
					InEvidenceRef:  "seed/in.jpg",
					ApprovalStatus: domain.StatusPending,
					Source:         domain.SourceMobile,
				}
				if err := repo.CreateAttendanceRecord(rec); err != nil {
					slog.Error("插入考勤记录失败", "error", err)
					continue
				}
				if _, err := repo.CloseOpenShift(identity, outTime, "seed/out.jpg", ""); err != nil {
					slog.Error("闭合考勤记录失败", "error", err)
				}
			}
		}
	}

	slog.Info("插入演示数据完成")
}
