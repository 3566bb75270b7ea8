package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomSupervisor(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleSupervisor,
		ProxyEnabled: true,
		IsActive:     true,
	}

	return user, nil
}

func GenerateRandomPhone() string {
	prefixes := []string{"134", "135", "136", "137", "138", "139", "150", "151", "152", "157", "158", "159", "188", "189"}
	phone := prefixes[rand.Intn(len(prefixes))]
	for i := 0; i < 8; i++ {
		phone += string(digits[rand.Intn(len(digits))])
	}
	return phone
}

func GenerateRandomDriver(plantID int64) *domain.Driver {
	return &domain.Driver{
		FullName:     GenerateRandomChineseName(),
		Phone:        GenerateRandomPhone(),
		PlantID:      plantID,
		IsActive:     true,
		ProxyEnabled: true,
	}
}

var plateProvinces = []string{"粤", "湘", "桂", "闽", "赣", "琼"}
var plateLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateRandomPlateNumber 生成类似 粤B·D1A234 的随机车牌号
func GenerateRandomPlateNumber() string {
	province := plateProvinces[rand.Intn(len(plateProvinces))]
	city := string(plateLetters[rand.Intn(len(plateLetters))])

	suffix := ""
	for i := 0; i < 5; i++ {
		if rand.Intn(3) == 0 {
			suffix += string(plateLetters[rand.Intn(len(plateLetters))])
		} else {
			suffix += string(digits[rand.Intn(len(digits))])
		}
	}

	return fmt.Sprintf("%s%s·%s", province, city, suffix)
}
